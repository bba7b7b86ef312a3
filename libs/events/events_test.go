package events

import (
	"testing"
	"time"

	"github.com/optica/paymentflow/libs/money"
)

func TestDecodeCompanyCreated(t *testing.T) {
	body := []byte(`{"name":"Acme","tax_id":"12.345.678/0001-90","external_company_id":"ext-co-1","timestamp":"2026-01-28T12:00:00Z"}`)
	evt, err := DecodeCompanyCreated(body)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if evt.Name != "Acme" || evt.TaxID != "12.345.678/0001-90" || evt.ExternalCompanyID != "ext-co-1" {
		t.Fatalf("unexpected event: %+v", evt)
	}
	want := time.Date(2026, 1, 28, 12, 0, 0, 0, time.UTC)
	if !evt.Timestamp.Equal(want) {
		t.Fatalf("expected timestamp %s, got %s", want, evt.Timestamp)
	}
}

func TestDecodeCompanyCreated_MissingFields(t *testing.T) {
	if _, err := DecodeCompanyCreated([]byte(`{"tax_id":"x"}`)); err == nil {
		t.Fatal("expected error for missing name")
	}
	if _, err := DecodeCompanyCreated([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestDecodeAccountCreated(t *testing.T) {
	body := []byte(`{"balance":100.00,"external_account_id":"ext-acc-1","company_id":1,"timestamp":"2026-01-28T12:00:00Z"}`)
	evt, err := DecodeAccountCreated(body)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !evt.Balance.Equal(money.FromCents(10000)) || evt.CompanyID != 1 {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestDecodeAccountCreated_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing company":  `{"balance":10,"external_account_id":"ext-acc-1"}`,
		"negative balance": `{"balance":-1,"external_account_id":"ext-acc-1","company_id":1}`,
		"missing external": `{"balance":10,"company_id":1}`,
	}
	for name, body := range cases {
		if _, err := DecodeAccountCreated([]byte(body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestDecodeRegisterCreated(t *testing.T) {
	body := []byte(`{"type":"DEPOSIT","amount":50.0,"account_id":7,"user_id":"u1","timestamp":"2026-01-28T12:00:00Z"}`)
	evt, err := DecodeRegisterCreated(body)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if evt.Type != "DEPOSIT" || evt.AccountID != 7 || evt.UserID != "u1" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestDecodeRegisterCreated_UnknownType(t *testing.T) {
	body := []byte(`{"type":"LOAN","amount":50.0,"account_id":7,"user_id":"u1"}`)
	if _, err := DecodeRegisterCreated(body); err == nil {
		t.Fatal("expected error for unknown register type")
	}
}

func TestTopologyCoversAllQueues(t *testing.T) {
	top := Topology()
	if top.Exchange != "payment.exchange" {
		t.Fatalf("unexpected exchange %q", top.Exchange)
	}
	keys := map[string]string{}
	for _, b := range top.Bindings {
		keys[b.Queue] = b.RoutingKey
	}
	want := map[string]string{
		CompanyQueue:  KeyCompanyCreated,
		AccountQueue:  KeyAccountCreated,
		RegisterQueue: KeyRegisterCreated,
	}
	for q, k := range want {
		if keys[q] != k {
			t.Fatalf("queue %s bound to %q, want %q", q, keys[q], k)
		}
	}
}
