package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Seeds demo data through the running API. State lives in the API process, so
// seeding goes over HTTP rather than a datastore.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	baseURL := os.Getenv("SEED_API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	client := &http.Client{Timeout: 5 * time.Second}

	day := func(offset int) string {
		return time.Now().UTC().AddDate(0, 0, offset).Format("2006-01-02")
	}

	products := []map[string]any{
		{"name": "Milk 1L", "category": "FOOD", "purchasePrice": 0.80, "expiration": day(6), "quantity": 40},
		{"name": "Bread", "category": "FOOD", "purchasePrice": 0.50, "expiration": day(2), "quantity": 25},
		{"name": "Rice 1kg", "category": "FOOD", "purchasePrice": 1.20, "expiration": day(365), "quantity": 60},
		{"name": "Yogurt", "category": "FOOD", "purchasePrice": 0.60, "expiration": day(4), "quantity": 30},
		{"name": "Dish Soap", "category": "NON_FOOD", "purchasePrice": 1.50, "expiration": day(720), "quantity": 20},
		{"name": "Toothpaste", "category": "NON_FOOD", "purchasePrice": 2.00, "expiration": day(540), "quantity": 15},
		{"name": "Paper Towels", "category": "NON_FOOD", "purchasePrice": 2.50, "expiration": day(1000), "quantity": 3},
	}
	for _, p := range products {
		post(client, baseURL+"/api/v1/products", p)
	}

	employees := []map[string]any{
		{"name": "Anna Petrova", "position": "CASHIER", "monthlySalary": 1200},
		{"name": "Boris Ivanov", "position": "CASHIER", "monthlySalary": 1150},
		{"name": "Maria Dimitrova", "position": "MANAGER", "monthlySalary": 2100},
	}
	for _, e := range employees {
		post(client, baseURL+"/api/v1/employees", e)
	}

	// Staff the first two registers.
	put(client, baseURL+"/api/v1/registers/1/cashier", map[string]any{"cashierId": 1})
	put(client, baseURL+"/api/v1/registers/2/cashier", map[string]any{"cashierId": 2})

	// Ring up one demo sale.
	sale := post(client, baseURL+"/api/v1/sales", map[string]any{"cashierId": 1, "registerNumber": 1})
	if saleID := dataInt(sale, "id"); saleID > 0 {
		post(client, fmt.Sprintf("%s/api/v1/sales/%d/items", baseURL, saleID), map[string]any{"productId": 1, "quantity": 2})
		post(client, fmt.Sprintf("%s/api/v1/sales/%d/items", baseURL, saleID), map[string]any{"productId": 5, "quantity": 1})
		post(client, fmt.Sprintf("%s/api/v1/sales/%d/complete", baseURL, saleID), map[string]any{"paymentMethod": "CASH"})
	}

	log.Println("Seeding completed successfully!")
}

func post(client *http.Client, url string, body map[string]any) map[string]any {
	return send(client, http.MethodPost, url, body)
}

func put(client *http.Client, url string, body map[string]any) map[string]any {
	return send(client, http.MethodPut, url, body)
}

func send(client *http.Client, method, url string, body map[string]any) map[string]any {
	payload, err := json.Marshal(body)
	if err != nil {
		log.Fatalf("marshal payload for %s: %v", url, err)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("build request for %s: %v", url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		decoded = nil
	}
	if resp.StatusCode >= 300 {
		log.Printf("%s %s -> %d %v", method, url, resp.StatusCode, decoded)
	} else {
		log.Printf("%s %s -> %d", method, url, resp.StatusCode)
	}
	return decoded
}

func dataInt(resp map[string]any, key string) int {
	data, ok := resp["data"].(map[string]any)
	if !ok {
		return 0
	}
	value, ok := data[key].(float64)
	if !ok {
		return 0
	}
	return int(value)
}
