package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
)

type seededUser struct {
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	RFIDKey string `json:"rfidKey"`
}

var firstNames = []string{"Ada", "Grace", "Alan", "Katherine", "Linus", "Barbara", "Dennis", "Margaret", "Ken", "Radia"}

type seeder struct {
	apiBase  string
	token    string
	password string
}

func (s *seeder) send(method, path string, body interface{}, management bool) ([]byte, error) {
	payload, _ := json.Marshal(body)

	req, _ := http.NewRequest(method, s.apiBase+path, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Token", s.token)
	if management {
		req.Header.Set("X-Management-Password", s.password)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%s %s failed (%d): %s", method, path, resp.StatusCode, string(bodyBytes))
	}
	return bodyBytes, nil
}

func (s *seeder) createUser(name, rfidKey string) (*seededUser, error) {
	body, err := s.send(http.MethodPost, "/users", map[string]string{"name": name, "rfidKey": rfidKey}, true)
	if err != nil {
		return nil, err
	}

	var result struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}
	return &seededUser{UserID: result.UserID, Name: name, RFIDKey: rfidKey}, nil
}

func (s *seeder) signIn(rfidKey string) error {
	_, err := s.send(http.MethodPost, "/attendance/sign-in", map[string]string{"rfidKey": rfidKey}, false)
	return err
}

func generateCard() string {
	const hex = "0123456789ABCDEF"
	card := make([]byte, 10)
	for i := range card {
		card[i] = hex[rand.Intn(len(hex))]
	}
	return string(card)
}

func main() {
	count := flag.Int("count", 10, "Number of members to create")
	signedIn := flag.Int("signed-in", 3, "How many of them to sign in")
	flag.Parse()

	apiURL := "http://localhost:3000"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}
	s := &seeder{
		apiBase:  apiURL + "/api",
		token:    os.Getenv("API_TOKEN"),
		password: os.Getenv("MANAGEMENT_PASSWORD"),
	}

	fmt.Printf("Creating %d members...\n", *count)
	var users []*seededUser
	for i := 0; i < *count; i++ {
		name := fmt.Sprintf("%s %d", firstNames[i%len(firstNames)], i+1)
		user, err := s.createUser(name, generateCard())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create member %d: %v\n", i+1, err)
			os.Exit(1)
		}
		users = append(users, user)
		fmt.Printf("  ✓ %s (%s)\n", user.Name, user.RFIDKey)
	}

	for i := 0; i < *signedIn && i < len(users); i++ {
		if err := s.signIn(users[i].RFIDKey); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to sign in %s: %v\n", users[i].Name, err)
			os.Exit(1)
		}
		fmt.Printf("  ✓ Signed in %s\n", users[i].Name)
	}

	fmt.Println("\nJSON OUTPUT (for scripts):")
	jsonOutput, _ := json.MarshalIndent(users, "", "  ")
	fmt.Println(string(jsonOutput))
}
