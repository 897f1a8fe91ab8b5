package audit

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scouthub/internal/domain"
)

func entry(team int) domain.AuditEntry {
	return domain.AuditEntry{Source: domain.SourceJSON, Record: domain.ScoutingRecord{"team": int64(team)}}
}

func teams(entries []domain.AuditEntry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.Record["team"].(int64)
	}
	return out
}

func TestLog_AppendAndList(t *testing.T) {
	t.Parallel()
	l := New(3)
	assert.Empty(t, l.List())

	l.Append(entry(1))
	l.Append(entry(2))
	got := l.List()
	require.Len(t, got, 2)
	assert.Equal(t, []int64{1, 2}, teams(got))
	assert.NotEmpty(t, got[0].ID)
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.False(t, got[0].ReceivedAt.IsZero())
}

func TestLog_EvictsOldest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		appends int
		want    []int64
	}{
		{"exactly full", 3, []int64{0, 1, 2}},
		{"one over", 4, []int64{1, 2, 3}},
		{"wrapped twice", 7, []int64{4, 5, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := New(3)
			for i := range tt.appends {
				l.Append(entry(i))
			}
			assert.Equal(t, tt.want, teams(l.List()))
			assert.Equal(t, 3, l.Len())
		})
	}
}

func TestLog_KeepsProvidedFields(t *testing.T) {
	t.Parallel()
	l := New(1)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	l.Append(domain.AuditEntry{ID: "fixed", ReceivedAt: at, CSVStatus: "created"})

	got := l.List()
	require.Len(t, got, 1)
	assert.Equal(t, "fixed", got[0].ID)
	assert.Equal(t, at, got[0].ReceivedAt)
}

func TestLog_DefaultCapacity(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultCapacity, New(0).Capacity())
	assert.Equal(t, DefaultCapacity, New(-5).Capacity())
}

func TestLog_ListIsCopy(t *testing.T) {
	t.Parallel()
	l := New(2)
	l.Append(entry(1))
	got := l.List()
	got[0].DBStatus = "tampered"
	assert.Empty(t, l.List()[0].DBStatus)
}

func TestLog_Concurrent(t *testing.T) {
	t.Parallel()
	l := New(50)
	var wg sync.WaitGroup
	for i := range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append(domain.AuditEntry{Source: strconv.Itoa(i)})
			_ = l.List()
		}()
	}
	wg.Wait()
	assert.Len(t, l.List(), 50)
}
