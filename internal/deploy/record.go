package deploy

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Record is one line of the deployment output file, comma joined in
// service, drivers, executors order.
type Record struct {
	ServiceName   string
	DriversRole   string
	ExecutorsRole string
}

func (r Record) String() string {
	return strings.Join([]string{r.ServiceName, r.DriversRole, r.ExecutorsRole}, ",")
}

// ParseRecord is the inverse of Record.String.
func ParseRecord(line string) (Record, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return Record{}, errors.Errorf("malformed record %q: want 3 fields, got %d", line, len(fields))
	}

	return Record{
		ServiceName:   fields[0],
		DriversRole:   fields[1],
		ExecutorsRole: fields[2],
	}, nil
}

// RecordWriter appends records to an output stream. Every write is flushed
// so the stream always holds one line per dispatcher submitted so far, even
// when a later instance aborts the run.
type RecordWriter struct {
	buf *bufio.Writer
}

func NewRecordWriter(w io.Writer) *RecordWriter {
	return &RecordWriter{buf: bufio.NewWriter(w)}
}

func (w *RecordWriter) Write(r Record) error {
	for _, field := range []string{r.ServiceName, r.DriversRole, r.ExecutorsRole} {
		if strings.Contains(field, ",") {
			return errors.Errorf("record field %q contains a comma", field)
		}
	}

	if _, err := w.buf.WriteString(r.String() + "\n"); err != nil {
		return errors.Wrap(err, "writing record")
	}

	return errors.Wrap(w.buf.Flush(), "flushing record")
}
