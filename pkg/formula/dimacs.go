package formula

import (
	"io"

	"github.com/go-air/gini/dimacs"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
)

// cnfVis accumulates clauses from gini's DIMACS reader.
type cnfVis struct {
	vars    int
	clauses []Clause
	cur     Clause
}

func (v *cnfVis) Init(vars, clauses int) {
	v.vars = vars
	v.clauses = make([]Clause, 0, clauses)
}

func (v *cnfVis) Add(m z.Lit) {
	if m == z.LitNull {
		v.clauses = append(v.clauses, v.cur)
		v.cur = nil
		return
	}
	l := Lit(m.Dimacs())
	if w := l.Var(); w > v.vars {
		v.vars = w
	}
	v.cur = append(v.cur, l)
}

func (v *cnfVis) Eof() {}

// LoadDimacs reads a CNF formula in DIMACS format.
func LoadDimacs(r io.Reader) (*CNF, error) {
	vis := &cnfVis{}
	if err := dimacs.ReadCnf(r, vis); err != nil {
		return nil, errors.Wrap(err, "reading dimacs input")
	}
	return New(vis.vars, vis.clauses), nil
}
