// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFakeClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 7, 4, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		start time.Time
		drive func(c *FakeClock) []time.Time
		want  []time.Time
	}{
		{
			name:  "zero start uses epoch",
			start: time.Time{},
			drive: func(c *FakeClock) []time.Time { return []time.Time{c.Now(), c.Now()} },
			want:  []time.Time{Epoch, Epoch},
		},
		{
			name:  "advance moves peek and now",
			start: start,
			drive: func(c *FakeClock) []time.Time {
				c.Advance(time.Hour)
				return []time.Time{c.Peek(), c.Now()}
			},
			want: []time.Time{start.Add(time.Hour), start.Add(time.Hour)},
		},
		{
			name:  "auto advance steps after each now",
			start: start,
			drive: func(c *FakeClock) []time.Time {
				c.AutoAdvance(time.Second)
				return []time.Time{c.Now(), c.Now(), c.Peek()}
			},
			want: []time.Time{start, start.Add(time.Second), start.Add(2 * time.Second)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.drive(NewFakeClock(tt.start))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("timestamps mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
