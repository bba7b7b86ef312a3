// event-sim drives the gateway with creation requests for local testing.
// It submits a company, then accounts against a given company id, then
// registers against a given account id. Because creation is asynchronous,
// the company/account ids must come from the consumer's query endpoints
// between runs.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	var (
		baseURL   = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "gateway base url")
		entity    = flag.String("entity", "company", "entity to create: company, account or register")
		count     = flag.Int("count", 1, "number of requests to send")
		companyID = flag.Int64("company-id", 0, "company id for account creation")
		accountID = flag.Int64("account-id", 0, "account id for register creation")
		regType   = flag.String("register-type", "DEPOSIT", "register type: DEPOSIT, WITHDRAWAL, PAYMENT or REFUND")
	)
	flag.Parse()

	for i := 0; i < *count; i++ {
		path, payload, err := buildRequest(*entity, i, *companyID, *accountID, *regType)
		if err != nil {
			fatal(err.Error())
		}
		if err := post(strings.TrimRight(*baseURL, "/")+path, payload); err != nil {
			fatal(err.Error())
		}
	}
}

func buildRequest(entity string, n int, companyID, accountID int64, regType string) (string, []byte, error) {
	suffix := fmt.Sprintf("%d-%d", time.Now().UnixNano(), n)
	switch entity {
	case "company":
		body, err := json.Marshal(map[string]any{
			"name":                "Sim Company " + suffix,
			"tax_id":              "12.345.678/0001-90",
			"external_company_id": "sim-co-" + suffix,
		})
		return "/api/v1/gateway/companies", body, err
	case "account":
		if companyID <= 0 {
			return "", nil, fmt.Errorf("-company-id is required for account creation")
		}
		body, err := json.Marshal(map[string]any{
			"balance":             100.0,
			"external_account_id": "sim-acc-" + suffix,
			"company_id":          companyID,
		})
		return "/api/v1/gateway/accounts", body, err
	case "register":
		if accountID <= 0 {
			return "", nil, fmt.Errorf("-account-id is required for register creation")
		}
		body, err := json.Marshal(map[string]any{
			"type":       regType,
			"amount":     25.0,
			"account_id": accountID,
			"user_id":    "sim-user-" + suffix,
		})
		return "/api/v1/gateway/registers", body, err
	default:
		return "", nil, fmt.Errorf("unknown entity %q", entity)
	}
}

func post(url string, payload []byte) error {
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	fmt.Printf("%s %d %s\n", url, resp.StatusCode, strings.TrimSpace(string(body)))
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "error: "+msg)
	os.Exit(1)
}
