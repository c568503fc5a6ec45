package core_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"logistics-backoffice/internal/core"
)

// captureSink records emitted GL events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []core.GLEvent
}

func (s *captureSink) Emit(event core.GLEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func glSource(entries ...core.GLEntry) core.GLSource {
	return core.GLSource{Version: "1", Module: "invoicing", SourceRef: "INV-1001", Entries: entries}
}

func TestGLPoster_BalancedBatchPosts(t *testing.T) {
	sink := &captureSink{}
	poster := core.NewGLPoster(sink)

	res, err := poster.Post(glSource(
		core.GLEntry{Acct: "1200", Debit: dec("100")},
		core.GLEntry{Acct: "4000", Credit: dec("100")},
	))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	assertMoney(t, "Debits", res.Debits, dec("100.00"))
	assertMoney(t, "Credits", res.Credits, dec("100.00"))
	if res.JournalID == "" {
		t.Error("expected a journal ID")
	}
	if res.At.IsZero() {
		t.Error("expected a posting timestamp")
	}

	if len(sink.events) != 1 || sink.events[0].Kind != "gl.posted" {
		t.Fatalf("expected one gl.posted event, got %+v", sink.events)
	}
	if sink.events[0].JournalID != res.JournalID {
		t.Errorf("event journal ID %s != result %s", sink.events[0].JournalID, res.JournalID)
	}
}

func TestGLPoster_UnbalancedBatchRejected(t *testing.T) {
	sink := &captureSink{}
	poster := core.NewGLPoster(sink)

	_, err := poster.Post(glSource(
		core.GLEntry{Acct: "1200", Debit: dec("100")},
		core.GLEntry{Acct: "4000", Credit: dec("99")},
	))
	if err == nil {
		t.Fatal("expected unbalanced entry error")
	}

	var unbalanced *core.UnbalancedEntryError
	if !errors.As(err, &unbalanced) {
		t.Fatalf("expected UnbalancedEntryError, got %T: %v", err, err)
	}
	assertMoney(t, "Difference", unbalanced.Difference, dec("1.00"))
	if !strings.Contains(err.Error(), "1.00") {
		t.Errorf("error %q does not report the difference", err.Error())
	}

	if len(sink.events) != 1 || sink.events[0].Kind != "gl.rejected" {
		t.Fatalf("expected one gl.rejected event, got %+v", sink.events)
	}
	assertMoney(t, "event difference", sink.events[0].Difference, dec("1.00"))
}

func TestGLPoster_OneCentToleranceBoundary(t *testing.T) {
	poster := core.NewGLPoster(&captureSink{})

	// Exactly one cent off is still acceptable.
	if _, err := poster.Post(glSource(
		core.GLEntry{Acct: "1200", Debit: dec("100.00")},
		core.GLEntry{Acct: "4000", Credit: dec("99.99")},
	)); err != nil {
		t.Errorf("1-cent difference should post, got %v", err)
	}

	// Two cents off is not.
	if _, err := poster.Post(glSource(
		core.GLEntry{Acct: "1200", Debit: dec("100.00")},
		core.GLEntry{Acct: "4000", Credit: dec("99.98")},
	)); err == nil {
		t.Error("2-cent difference should be rejected")
	}
}

func TestGLPoster_StructuralValidation(t *testing.T) {
	balanced := core.GLEntry{Acct: "9999", Credit: dec("10")}

	tests := []struct {
		name    string
		entry   core.GLEntry
		wantErr string
	}{
		{"missing account", core.GLEntry{Debit: dec("10")}, "account code is required"},
		{"negative debit", core.GLEntry{Acct: "1200", Debit: dec("-1")}, "debit must be >= 0"},
		{"negative credit", core.GLEntry{Acct: "1200", Credit: dec("-1")}, "credit must be >= 0"},
		{"both sides set", core.GLEntry{Acct: "1200", Debit: dec("10"), Credit: dec("10")}, "both a debit and a credit"},
		{"both sides zero", core.GLEntry{Acct: "1200"}, "either debit or credit must be nonzero"},
		{"sub-cent debit", core.GLEntry{Acct: "1200", Debit: dec("10.005")}, "more than 2 decimal places"},
		{"sub-cent credit", core.GLEntry{Acct: "1200", Credit: dec("10.001")}, "more than 2 decimal places"},
	}

	poster := core.NewGLPoster(&captureSink{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := poster.Post(glSource(tt.entry, balanced))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}

	if _, err := poster.Post(core.GLSource{Module: "invoicing", SourceRef: "INV-1"}); err == nil {
		t.Error("expected error for empty entry list")
	}
}

func TestGLPoster_JournalIDsUniqueUnderConcurrency(t *testing.T) {
	poster := core.NewGLPoster(&captureSink{})

	const calls = 200
	var wg sync.WaitGroup
	ids := make(chan string, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := poster.Post(glSource(
				core.GLEntry{Acct: "1200", Debit: dec("50")},
				core.GLEntry{Acct: "4000", Credit: dec("50")},
			))
			if err != nil {
				t.Errorf("Post: %v", err)
				return
			}
			ids <- res.JournalID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, calls)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate journal ID %s", id)
		}
		seen[id] = true
	}
}

func TestGLEntryFactories_ProduceBalancedPairs(t *testing.T) {
	amount := dec("123.45")
	tests := []struct {
		name    string
		entries []core.GLEntry
		drAcct  string
		crAcct  string
	}{
		{"invoice", core.InvoiceGLEntries(amount, "1200", "4000", "invoice INV-1"), "1200", "4000"},
		{"payment", core.PaymentGLEntries(amount, "1100", "1200", "payment PRC-1"), "1100", "1200"},
		{"rma credit", core.RMACreditGLEntries(amount, "4100", "1200", "credit memo CRM-1"), "4100", "1200"},
		{"disposal", core.DisposalGLEntries(amount, "5200", "1300", "disposal RMA-1"), "5200", "1300"},
	}

	poster := core.NewGLPoster(&captureSink{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.entries) != 2 {
				t.Fatalf("expected 2 entries, got %d", len(tt.entries))
			}
			if tt.entries[0].Acct != tt.drAcct || !tt.entries[0].Debit.Equal(amount) {
				t.Errorf("debit side = %+v, want DR %s %s", tt.entries[0], tt.drAcct, amount)
			}
			if tt.entries[1].Acct != tt.crAcct || !tt.entries[1].Credit.Equal(amount) {
				t.Errorf("credit side = %+v, want CR %s %s", tt.entries[1], tt.crAcct, amount)
			}

			res, err := poster.Post(core.GLSource{Module: "test", SourceRef: tt.name, Entries: tt.entries})
			if err != nil {
				t.Fatalf("factory output failed to post: %v", err)
			}
			if !res.Debits.Equal(res.Credits) {
				t.Errorf("debits %s != credits %s", res.Debits, res.Credits)
			}
		})
	}
}

func TestGLPoster_ResultRoundedToCents(t *testing.T) {
	poster := core.NewGLPoster(&captureSink{})

	start := time.Now()
	res, err := poster.Post(glSource(
		core.GLEntry{Acct: "1200", Debit: dec("33.33")},
		core.GLEntry{Acct: "1200", Debit: dec("66.67")},
		core.GLEntry{Acct: "4000", Credit: dec("100.00")},
	))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	assertMoney(t, "Debits", res.Debits, dec("100.00"))
	assertMoney(t, "Credits", res.Credits, dec("100.00"))
	if res.At.Before(start.Add(-time.Second)) {
		t.Errorf("posting timestamp %s is implausibly old", res.At)
	}
}
