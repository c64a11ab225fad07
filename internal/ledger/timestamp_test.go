package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampScan(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)

	tests := []struct {
		name    string
		src     any
		want    time.Time
		wantErr bool
	}{
		{name: "time value", src: want, want: want},
		{name: "sqlite text", src: "2024-03-09 14:05:06", want: want},
		{name: "bytes", src: []byte("2024-03-09 14:05:06"), want: want},
		{name: "rfc3339", src: "2024-03-09T14:05:06Z", want: want},
		{name: "null", src: nil, want: time.Time{}},
		{name: "garbage text", src: "yesterday", wantErr: true},
		{name: "wrong type", src: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ts timestamp

			err := ts.Scan(tt.src)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.True(t, tt.want.Equal(ts.Time), "got %v", ts.Time)
		})
	}
}
