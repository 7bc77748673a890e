package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/dutyscrape/internal/browser"
	"github.com/law-makers/dutyscrape/pkg/models"
)

const drawbackTable = `<html><body>
<div class="rowh"><div class="cell">CTH</div><div class="cell">Desc</div><div class="cell">Unit</div><div class="cell">DBK %</div></div>
<div class="rowh"><div class="cell">080610</div><div class="cell">Fresh grapes</div><div class="cell">Kg</div><div class="cell"> 1.5 </div></div>
</body></html>`

func TestDrawbackExtract(t *testing.T) {
	page := &fakePage{html: drawbackTable}
	s := NewDrawback(page, DefaultDrawbackOptions())

	out := s.Extract(context.Background(), models.Item{Code: "080610"})
	if out.Status != models.StatusValue || out.Token != "1.5" {
		t.Fatalf("Expected value 1.5, got %+v", out)
	}

	wantURL := "navigate https://www.old.icegate.gov.in/Webappl/ccr_details_new.jsp?cth_duty_nw=080610"
	if page.calls[0] != wantURL {
		t.Errorf("Expected %q, got %q", wantURL, page.calls[0])
	}
	if page.calls[1] != fmt.Sprintf("sleep %v", DefaultDrawbackSettle) {
		t.Errorf("Expected settle delay before reading, got %q", page.calls[1])
	}
}

func TestDrawbackMissingRowIsAbsent(t *testing.T) {
	page := &fakePage{html: `<html><body><div class="rowh"><div class="cell">x</div></div></body></html>`}
	out := NewDrawback(page, DrawbackOptions{}).Extract(context.Background(), models.Item{Code: "123456"})
	if out.Status != models.StatusAbsent {
		t.Errorf("Expected absent, got %+v", out)
	}
}

func TestDrawbackNavigationFailure(t *testing.T) {
	page := &fakePage{navErr: fmt.Errorf("navigate: %w", browser.ErrTimeout)}
	out := NewDrawback(page, DrawbackOptions{}).Extract(context.Background(), models.Item{Code: "123456"})
	if out.Status != models.StatusError {
		t.Fatalf("Expected error outcome, got %+v", out)
	}
	if CodeOf(out.Err) != ErrCodeTimeout {
		t.Errorf("Expected TIMEOUT code, got %q", CodeOf(out.Err))
	}
	if len(page.calls) != 1 {
		t.Errorf("Nothing should run after a failed navigation: %v", page.calls)
	}
}

func TestImportDutyExtract(t *testing.T) {
	page := &fakePage{texts: map[string]string{DefaultImportDutySelector: " 3.5% "}}
	s := NewImportDuty(page, ImportDutyOptions{})
	item := models.Item{Code: "080610", Country: &models.Country{Code: "842", Name: "United States", Column: "UNITED_STATES"}}

	out := s.Extract(context.Background(), item)
	if out.Status != models.StatusValue || out.Token != "3.5%" {
		t.Fatalf("Expected token 3.5%%, got %+v", out)
	}

	want := "navigate https://www.macmap.org/en//query/results?reporter=842&partner=699&product=080610&level=6"
	if page.calls[0] != want {
		t.Errorf("Expected %q, got %q", want, page.calls[0])
	}
	if page.calls[1] != fmt.Sprintf("wait %s %v", DefaultImportDutySelector, DefaultResultWait) {
		t.Errorf("Unexpected wait call %q", page.calls[1])
	}
}

func TestImportDutyTimeoutIsAbsent(t *testing.T) {
	page := &fakePage{waitErr: fmt.Errorf("wait: %w", browser.ErrTimeout)}
	item := models.Item{Code: "080610", Country: &models.Country{Code: "156", Name: "China"}}

	out := NewImportDuty(page, ImportDutyOptions{}).Extract(context.Background(), item)
	if out.Status != models.StatusAbsent {
		t.Errorf("Expected absent on wait timeout, got %+v", out)
	}
}

func TestImportDutyRequiresCountry(t *testing.T) {
	out := NewImportDuty(&fakePage{}, ImportDutyOptions{}).Extract(context.Background(), models.Item{Code: "080610"})
	if out.Status != models.StatusError {
		t.Errorf("Expected error without a country, got %+v", out)
	}
}

func TestRebateInteractionSequence(t *testing.T) {
	page := &fakePage{texts: map[string]string{"#itchsRodtep": "0.7%"}}
	s := NewRebate(page, DefaultRebateOptions())

	if err := Prepare(context.Background(), s); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if len(page.blocked) != 1 || page.blocked[0] != DefaultRebateBlockedHost {
		t.Errorf("Expected guard for %s, got %v", DefaultRebateBlockedHost, page.blocked)
	}

	page.calls = nil
	out := s.Extract(context.Background(), models.Item{Code: "080610"})
	if out.Status != models.StatusValue || out.Token != "0.7%" {
		t.Fatalf("Expected token 0.7%%, got %+v", out)
	}

	want := []string{
		"navigate " + DefaultRebateURL,
		"click .chosen-single",
		"type .chosen-container-active input 080610",
		fmt.Sprintf("sleep %v", DefaultRebateStepDelay),
		"click .chosen-container-active .chosen-results li.active-result",
		fmt.Sprintf("sleep %v", DefaultRebateStepDelay),
		"click #discover",
		fmt.Sprintf("sleep %v", DefaultRebateDiscoverDelay),
		"text #itchsRodtep",
	}
	if strings.Join(page.calls, "\n") != strings.Join(want, "\n") {
		t.Errorf("Unexpected call sequence:\n%s", strings.Join(page.calls, "\n"))
	}
}

func TestRebateClickFailure(t *testing.T) {
	page := &fakePage{clickErr: map[string]error{"#discover": errors.New("node not found")}}
	out := NewRebate(page, RebateOptions{}).Extract(context.Background(), models.Item{Code: "080610"})

	if out.Status != models.StatusError {
		t.Fatalf("Expected error, got %+v", out)
	}
	if CodeOf(out.Err) != ErrCodeInteraction {
		t.Errorf("Expected INTERACTION code, got %q", CodeOf(out.Err))
	}
}

func TestRebateEmptyResultIsAbsent(t *testing.T) {
	page := &fakePage{texts: map[string]string{"#itchsRodtep": "  "}}
	out := NewRebate(page, RebateOptions{}).Extract(context.Background(), models.Item{Code: "080610"})
	if out.Status != models.StatusAbsent {
		t.Errorf("Expected absent, got %+v", out)
	}
}

func TestRebateNoGuards(t *testing.T) {
	page := &fakePage{}
	s := NewRebate(page, RebateOptions{BlockedHosts: []string{}})
	if err := s.Prepare(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(page.calls) != 0 {
		t.Errorf("Expected no guard installation, got %v", page.calls)
	}
}

func TestRebateCancelledDuringSettle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := NewRebate(&fakePage{}, RebateOptions{StepDelay: time.Millisecond}).Extract(ctx, models.Item{Code: "080610"})
	if out.Status != models.StatusError || !errors.Is(out.Err, context.Canceled) {
		t.Errorf("Expected cancellation error, got %+v", out)
	}
}

func TestExtractErrorIs(t *testing.T) {
	err := NewExtractError(ErrCodeSelector, "read", browser.ErrClosed)
	if !errors.Is(err, &ExtractError{Code: ErrCodeSelector}) {
		t.Error("Expected match by code")
	}
	if !errors.Is(err, browser.ErrClosed) {
		t.Error("Expected match on underlying error")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Error("Plain errors have no code")
	}
}
