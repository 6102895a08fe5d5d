package control

import (
	"io"

	"github.com/vietddude/biofetch/internal/infra/storage/csv"
)

func csvTo(w io.Writer) *csv.Sink {
	return csv.NewWriter(w)
}
