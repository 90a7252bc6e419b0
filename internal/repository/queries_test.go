package repository

import (
	"strings"
	"testing"
)

// The repos run against a live pool, so these pin the two query properties
// the quiz pipeline depends on without a database: completed contents arrive
// newest first, and regeneration never moves the version.

func TestCompletedContentsOrderNewestFirst(t *testing.T) {
	if !strings.Contains(fetchCompletedSinceQuery, "ORDER BY cc.completed_at DESC") {
		t.Errorf("completed contents must be ordered newest first, got query:\n%s", fetchCompletedSinceQuery)
	}
}

func TestSaveItemsKeepsVersion(t *testing.T) {
	update := saveItemsQuery[strings.Index(saveItemsQuery, "DO UPDATE"):]
	if strings.Contains(update, "version") {
		t.Errorf("regeneration must not touch the version column, got update clause:\n%s", update)
	}
}
