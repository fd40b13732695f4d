package solver

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/paiban/fca/pkg/scheduler/mip"
)

const termsPerLine = 8

// WriteLP 以 CPLEX LP 格式写出模型，返回写出的列名（与变量下标一一对应）
func WriteLP(w io.Writer, m *mip.Model) ([]string, error) {
	bw := bufio.NewWriter(w)
	names := columnNames(m)

	sense, obj := m.Objective()
	fmt.Fprintf(bw, "\\ %s\n", m.Name)
	if sense == mip.Minimize {
		bw.WriteString("Minimize\n")
	} else {
		bw.WriteString("Maximize\n")
	}
	bw.WriteString(" obj:")
	writeTerms(bw, obj, names)
	bw.WriteString("\n")

	bw.WriteString("Subject To\n")
	for i, r := range m.Rows() {
		fmt.Fprintf(bw, " r%d:", i)
		writeTerms(bw, r.Expr, names)
		fmt.Fprintf(bw, " %s %s\n", lpSense(r.Sense), formatNumber(r.RHS))
	}

	bw.WriteString("Bounds\n")
	for i, v := range m.Vars() {
		if v.Kind == mip.Binary {
			continue
		}
		switch {
		case math.IsInf(v.Upper, 1):
			fmt.Fprintf(bw, " %s >= %s\n", names[i], formatNumber(v.Lower))
		default:
			fmt.Fprintf(bw, " %s <= %s <= %s\n", formatNumber(v.Lower), names[i], formatNumber(v.Upper))
		}
	}

	writeSection(bw, "Generals", m, names, mip.Integer)
	writeSection(bw, "Binaries", m, names, mip.Binary)
	bw.WriteString("End\n")
	return names, bw.Flush()
}

// writeTerms 写出线性项；空表达式写成首列的零系数，保证语法合法
func writeTerms(w *bufio.Writer, e mip.Expr, names []string) {
	e = e.Compact()
	if len(e.Terms) == 0 {
		fmt.Fprintf(w, " 0 %s", names[0])
		return
	}
	for i, t := range e.Terms {
		if i > 0 && i%termsPerLine == 0 {
			w.WriteString("\n   ")
		}
		sign := "+"
		coef := t.Coef
		if coef < 0 {
			sign = "-"
			coef = -coef
		}
		if i == 0 && sign == "+" {
			fmt.Fprintf(w, " %s %s", formatNumber(coef), names[t.Var])
			continue
		}
		fmt.Fprintf(w, " %s %s %s", sign, formatNumber(coef), names[t.Var])
	}
}

func writeSection(w *bufio.Writer, title string, m *mip.Model, names []string, kind mip.Kind) {
	var cols []string
	for i, v := range m.Vars() {
		if v.Kind == kind {
			cols = append(cols, names[i])
		}
	}
	if len(cols) == 0 {
		return
	}
	w.WriteString(title + "\n")
	for i := 0; i < len(cols); i += termsPerLine {
		end := i + termsPerLine
		if end > len(cols) {
			end = len(cols)
		}
		w.WriteString(" " + strings.Join(cols[i:end], " ") + "\n")
	}
}

// columnNames 合法且唯一的列名；非法字符替换为下划线，重名追加下标
func columnNames(m *mip.Model) []string {
	names := make([]string, m.NumVars())
	seen := make(map[string]bool, len(names))
	for i, v := range m.Vars() {
		name := sanitize(v.Name)
		if name == "" || seen[name] {
			name = fmt.Sprintf("%s_c%d", name, i)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

func sanitize(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func lpSense(s mip.Sense) string {
	switch s {
	case mip.LE:
		return "<="
	case mip.GE:
		return ">="
	}
	return "="
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
