package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"tripcost/core/tariff"
	"tripcost/core/types"
	"tripcost/internal/errors"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testGrid() *types.Grid {
	return &types.Grid{
		ProfileID: "p1", Mode: types.ModeRange, Currency: types.CurrencyEUR,
		Rows: []types.GridRow{{
			Pax: 5, Label: "5 pax",
			Result: types.PricingResult{
				PaxCount: 5, TotalCost: dec("210"), TotalPrice: dec("273"), TotalProfit: dec("63"),
				CostPerPerson: dec("42"), PricePerPerson: dec("54.6"), PriceWithVAT: dec("273"),
				Incomplete: true,
				Days: []types.DayCost{{DayID: "d1", Number: 1, Cost: dec("50"), Blocks: []types.BlockCost{{
					BlockID: "b1", Kind: types.BlockActivity, Cost: dec("50"), Known: true,
					Items: []types.ItemCost{{ItemID: "visit", Quantity: 1, UnitCost: dec("50"), Subtotal: dec("50"), Known: true}},
				}}}},
				Warnings: []types.Warning{{Type: errors.TypeMissingRate, ItemID: "visit", Message: "exchange rate required: THB -> EUR"}},
			},
		}},
		Omitted: []types.OmittedRow{{Pax: 0, Type: errors.TypeDivisionUndefined, Reason: "no paying passengers"}},
	}
}

func TestTableRendersRowsAndWarnings(t *testing.T) {
	f, err := New(FormatTable, Options{Breakdown: true})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := f.RenderGrid(&buf, testGrid()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"5 pax *", "273.00", "54.60", "MISSING_RATE", "item visit", "omitted", "Day 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestJSONRoundTripsDecimals(t *testing.T) {
	f, _ := New(FormatJSON, Options{})
	var buf bytes.Buffer
	if err := f.RenderGrid(&buf, testGrid()); err != nil {
		t.Fatal(err)
	}
	var decoded types.Grid
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !decoded.Rows[0].Result.PricePerPerson.Equal(dec("54.6")) {
		t.Errorf("expected 54.6 after decoding, got %s", decoded.Rows[0].Result.PricePerPerson)
	}
}

func TestTariffRendering(t *testing.T) {
	view := &tariff.View{
		ProfileID: "p1", Mode: tariff.ModeBands, Currency: "EUR", IncludeVAT: true,
		Entries: []tariff.Entry{{Label: "2-4 pax", PaxMin: 2, PaxMax: 4, Price: dec("750"), PerPerson: true}},
	}
	for _, format := range []Format{FormatTable, FormatMarkdown} {
		f, _ := New(format, Options{})
		var buf bytes.Buffer
		if err := f.RenderTariff(&buf, view); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "750.00") || !strings.Contains(buf.String(), "per person") {
			t.Errorf("%s: unexpected tariff output:\n%s", format, buf.String())
		}
	}
}

func TestUnknownFormat(t *testing.T) {
	if _, err := New("pdf", Options{}); err == nil {
		t.Error("expected error for unknown format")
	}
}
