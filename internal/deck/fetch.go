package deck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Definition is the external deck document: calls are fragment lists
// (arity = fragments - 1), responses are the card texts. The server only
// keeps the counts and arities; text stays client-side.
type Definition struct {
	Calls     [][]string   `json:"calls"`
	Responses responseList `json:"responses"`
}

// responseList accepts both shapes seen in the wild: ["text", ...] and
// [["text"], ...].
type responseList []string

func (r *responseList) UnmarshalJSON(data []byte) error {
	var flat []string
	if err := json.Unmarshal(data, &flat); err == nil {
		*r = flat
		return nil
	}
	var nested [][]string
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}
	out := make([]string, len(nested))
	for i, parts := range nested {
		if len(parts) > 0 {
			out[i] = parts[0]
		}
	}
	*r = out
	return nil
}

// Validate rejects documents a room could not run on.
func (d *Definition) Validate() error {
	if len(d.Calls) == 0 {
		return errors.New("deck document has no calls")
	}
	if len(d.Responses) == 0 {
		return errors.New("deck document has no responses")
	}
	for i, call := range d.Calls {
		if len(call) < 2 {
			return fmt.Errorf("call %d has no blanks", i)
		}
	}
	return nil
}

// Arities returns the blank count of each call, indexed by call id.
func (d *Definition) Arities() []int {
	arities := make([]int, len(d.Calls))
	for i, call := range d.Calls {
		arities[i] = len(call) - 1
	}
	return arities
}

// Fetch downloads and validates a deck document. A failure here aborts
// room creation; it is never retried.
func Fetch(ctx context.Context, client *http.Client, url string) (*Definition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build deck request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch deck: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch deck: unexpected status %s", resp.Status)
	}

	var def Definition
	if err := json.NewDecoder(resp.Body).Decode(&def); err != nil {
		return nil, fmt.Errorf("decode deck: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid deck: %w", err)
	}
	return &def, nil
}
