package surface

import (
	"encoding/json"
	"io"

	"github.com/seoauditor/seoauditor/pkg/regression"
)

// JSONRenderer marshals results to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) RenderReport(w io.Writer, rep *Report) error {
	return encode(w, rep)
}

func (r *JSONRenderer) RenderRegressions(w io.Writer, regs []regression.Regression) error {
	if regs == nil {
		regs = []regression.Regression{}
	}
	return encode(w, regs)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
