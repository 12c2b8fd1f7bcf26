package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"text/tabwriter"
)

var baseURL = getenv("INSTAHYRE_URL", "http://localhost:8080")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "review":
		handleReview(args)
	case "places":
		handlePlaces(args)
	case "seed":
		handleSeed(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`instahyre CLI

Usage:
  instahyre auth register -name NAME -phone PHONE -password PASS
  instahyre auth login -phone PHONE -password PASS
  instahyre review add -place NAME -address ADDR -rating N [-text TEXT] [-category CAT]
  instahyre places search [-name NAME] [-min-rating N] [-category CAT]
  instahyre places detail -id PLACE_ID
  instahyre seed

Environment:
  INSTAHYRE_URL   API base URL (default http://localhost:8080)`)
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: instahyre auth <register|login>")
		return
	}

	switch args[0] {
	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		name := fs.String("name", "", "display name")
		phone := fs.String("phone", "", "phone number")
		password := fs.String("password", "", "password")
		fs.Parse(args[1:])

		var out struct {
			UserID string `json:"user_id"`
			Token  string `json:"token"`
		}
		if err := post("/api/auth/register", "", map[string]any{
			"name": *name, "phone": *phone, "password": *password,
		}, &out); err != nil {
			fatal(err)
		}
		saveToken(out.Token)
		fmt.Printf("registered user %s, token saved\n", out.UserID)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		phone := fs.String("phone", "", "phone number")
		password := fs.String("password", "", "password")
		fs.Parse(args[1:])

		var out struct {
			UserID string `json:"user_id"`
			Token  string `json:"token"`
		}
		if err := post("/api/auth/login", "", map[string]any{
			"phone": *phone, "password": *password,
		}, &out); err != nil {
			fatal(err)
		}
		saveToken(out.Token)
		fmt.Printf("logged in as %s, token saved\n", out.UserID)

	default:
		fmt.Printf("unknown auth command: %s\n", args[0])
	}
}

func handleReview(args []string) {
	if len(args) < 1 || args[0] != "add" {
		fmt.Println("Usage: instahyre review add -place NAME -address ADDR -rating N [-text TEXT] [-category CAT]")
		return
	}

	fs := flag.NewFlagSet("add", flag.ExitOnError)
	place := fs.String("place", "", "place name")
	address := fs.String("address", "", "place address")
	rating := fs.Int("rating", 0, "rating 1-5")
	text := fs.String("text", "", "review text")
	category := fs.String("category", "", "shop|doctor|restaurant|other")
	fs.Parse(args[1:])

	var out struct {
		ID      string `json:"id"`
		PlaceID string `json:"place_id"`
	}
	err := post("/api/reviews", loadToken(), map[string]any{
		"place_name":    *place,
		"place_address": *address,
		"rating":        *rating,
		"text":          *text,
		"category":      *category,
	}, &out)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("created review %s on place %s\n", out.ID, out.PlaceID)
}

func handlePlaces(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: instahyre places <search|detail>")
		return
	}

	switch args[0] {
	case "search":
		fs := flag.NewFlagSet("search", flag.ExitOnError)
		name := fs.String("name", "", "name filter")
		minRating := fs.String("min-rating", "", "minimum average rating")
		category := fs.String("category", "", "category filter")
		fs.Parse(args[1:])

		q := url.Values{}
		if *name != "" {
			q.Set("name", *name)
		}
		if *minRating != "" {
			q.Set("min_rating", *minRating)
		}
		if *category != "" {
			q.Set("category", *category)
		}
		path := "/api/places/search?" + q.Encode()

		var out struct {
			Results []struct {
				ID            string   `json:"id"`
				Name          string   `json:"name"`
				Address       string   `json:"address"`
				Category      string   `json:"category"`
				AverageRating *float64 `json:"average_rating"`
				ReviewCount   int      `json:"review_count"`
			} `json:"results"`
		}
		if err := get(path, loadToken(), &out); err != nil {
			fatal(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tADDRESS\tCATEGORY\tAVG\tREVIEWS")
		for _, p := range out.Results {
			avg := "-"
			if p.AverageRating != nil {
				avg = fmt.Sprintf("%.2f", *p.AverageRating)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Address, p.Category, avg, p.ReviewCount)
		}
		w.Flush()

	case "detail":
		fs := flag.NewFlagSet("detail", flag.ExitOnError)
		id := fs.String("id", "", "place id")
		fs.Parse(args[1:])

		var out json.RawMessage
		if err := get("/api/places/"+*id, loadToken(), &out); err != nil {
			fatal(err)
		}
		var pretty bytes.Buffer
		json.Indent(&pretty, out, "", "  ")
		fmt.Println(pretty.String())

	default:
		fmt.Printf("unknown places command: %s\n", args[0])
	}
}

// handleSeed populates the API with sample users, places, and reviews.
func handleSeed(args []string) {
	rng := rand.New(rand.NewSource(42))

	type seedUser struct {
		phone string
		token string
	}

	users := make([]seedUser, 0, 10)
	for i := 0; i < 10; i++ {
		phone := fmt.Sprintf("900000000%d", i)
		var out struct {
			Token string `json:"token"`
		}
		err := post("/api/auth/register", "", map[string]any{
			"name": fmt.Sprintf("User %d", i), "phone": phone, "password": "password123",
		}, &out)
		if err != nil {
			// Already registered on a previous run; log in instead.
			if err := post("/api/auth/login", "", map[string]any{
				"phone": phone, "password": "password123",
			}, &out); err != nil {
				fatal(err)
			}
		}
		users = append(users, seedUser{phone: phone, token: out.Token})
	}

	places := []struct{ name, address, category string }{
		{"Star Cafe", "MG Road, Bangalore", "restaurant"},
		{"Health Plus Clinic", "Indiranagar, Bangalore", "doctor"},
		{"Book World", "Brigade Road, Bangalore", "shop"},
		{"Daily Mart", "HSR Layout, Bangalore", "shop"},
		{"Tasty Bites", "Koramangala, Bangalore", "restaurant"},
	}

	reviewTexts := []string{
		"Great service and friendly staff.",
		"Average experience, could be better.",
		"Loved it! Highly recommend.",
		"Not satisfied with the quality.",
		"Good value for money.",
	}

	created := 0
	for _, p := range places {
		for _, u := range users {
			if rng.Float64() >= 0.7 {
				continue
			}
			err := post("/api/reviews", u.token, map[string]any{
				"place_name":    p.name,
				"place_address": p.address,
				"rating":        rng.Intn(5) + 1,
				"text":          reviewTexts[rng.Intn(len(reviewTexts))],
				"category":      p.category,
			}, nil)
			if err != nil {
				fatal(err)
			}
			created++
		}
	}

	fmt.Printf("seeded %d users, %d places, %d reviews\n", len(users), len(places), created)
}

func post(path, token string, body map[string]any, out any) error {
	payload, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return do(req, out)
}

func get(path, token string, out any) error {
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return do(req, out)
}

func do(req *http.Request, out any) error {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("request failed: %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func tokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".instahyre_token"
	}
	return filepath.Join(home, ".instahyre_token")
}

func saveToken(token string) {
	if err := os.WriteFile(tokenPath(), []byte(token), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not save token: %v\n", err)
	}
}

func loadToken() string {
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return ""
	}
	return string(bytes.TrimSpace(data))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
