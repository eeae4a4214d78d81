package deploy

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	testcases := []struct {
		desc    string
		line    string
		want    Record
		wantErr bool
	}{
		{
			desc: "well formed line",
			line: "spark-instance-0,spark-instance-0-drivers-role,spark-instance-0-executors-role",
			want: Record{
				ServiceName:   "spark-instance-0",
				DriversRole:   "spark-instance-0-drivers-role",
				ExecutorsRole: "spark-instance-0-executors-role",
			},
		},
		{
			desc:    "too few fields",
			line:    "spark-instance-0,spark-instance-0-drivers-role",
			wantErr: true,
		},
		{
			desc:    "too many fields",
			line:    "a,b,c,d",
			wantErr: true,
		},
		{
			desc:    "empty line",
			line:    "",
			wantErr: true,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := ParseRecord(tc.line)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.line, got.String())
		})
	}
}

func TestRecordWriterFlushesEveryLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewRecordWriter(&buf)

	first := Record{
		ServiceName:   "spark-instance-0",
		DriversRole:   "spark-instance-0-drivers-role",
		ExecutorsRole: "spark-instance-0-executors-role",
	}
	require.NoError(t, w.Write(first))

	// The line must be visible without any closing step.
	assert.Equal(t, first.String()+"\n", buf.String())

	second := Record{
		ServiceName:   "spark-instance-1",
		DriversRole:   "spark-instance-1-drivers-role",
		ExecutorsRole: "spark-instance-1-executors-role",
	}
	require.NoError(t, w.Write(second))

	assert.Equal(t, first.String()+"\n"+second.String()+"\n", buf.String())
}

func TestRecordWriterRejectsCommaInField(t *testing.T) {
	var buf bytes.Buffer
	w := NewRecordWriter(&buf)

	err := w.Write(Record{
		ServiceName:   "spark,instance",
		DriversRole:   "drivers-role",
		ExecutorsRole: "executors-role",
	})

	assert.Error(t, err)
	assert.Empty(t, buf.String())
}
