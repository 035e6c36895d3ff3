package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OllamaProvider struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3:latest"
	}
	return &OllamaProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		// no global timeout; ctx controls streaming requests
		Client: &http.Client{},
	}
}

type ollamaMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type ollamaChatReq struct {
	Model    string        `json:"model"`
	Messages []ollamaMsg   `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaStreamResp struct {
	Message ollamaMsg `json:"message"`
	Done    bool      `json:"done"`
	Error   string    `json:"error,omitempty"`
}

type ollamaTagsResp struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// StreamChat posts to /api/chat and returns a stream reading the NDJSON
// response body line by line. top_k is not forwarded: Ollama expects a
// token count there, not a probability.
func (p *OllamaProvider) StreamChat(ctx context.Context, messages []Message, opts Options) (TokenStream, error) {
	if p.Client == nil {
		return nil, errors.New("ollama: http client is nil")
	}

	reqBody := ollamaChatReq{
		Model:  p.Model,
		Stream: true,
		Messages: func() []ollamaMsg {
			out := make([]ollamaMsg, 0, len(messages))
			for _, m := range messages {
				out = append(out, ollamaMsg{Role: m.Role, Content: m.Content})
			}
			return out
		}(),
		Options: ollamaOptions{Temperature: opts.Temperature, TopP: opts.TopP},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/chat", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, fmt.Errorf("ollama: status %d: %s", resp.StatusCode, errorBody(resp.Body))
	}

	sc := bufio.NewScanner(resp.Body)
	// Increase scanner buffer for long JSON lines.
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, 2*1024*1024)

	return &ollamaStream{body: resp.Body, sc: sc}, nil
}

// ListModels returns the names reported by /api/tags.
func (p *OllamaProvider) ListModels(ctx context.Context) ([]string, error) {
	if p.Client == nil {
		return nil, errors.New("ollama: http client is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/api/tags", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama: status %d: %s", resp.StatusCode, errorBody(resp.Body))
	}

	var decoded ollamaTagsResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("ollama: decode tags: %w", err)
	}
	names := make([]string, 0, len(decoded.Models))
	for _, m := range decoded.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

type ollamaStream struct {
	body io.ReadCloser
	sc   *bufio.Scanner
	tok  string
	err  error
	done bool
}

func (s *ollamaStream) Next() bool {
	s.tok = ""
	if s.done || s.err != nil {
		return false
	}

	for s.sc.Scan() {
		line := s.sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var decoded ollamaStreamResp
		if err := json.Unmarshal(line, &decoded); err != nil {
			s.fail(fmt.Errorf("ollama: decode chunk: %w", err))
			return false
		}
		if decoded.Error != "" {
			s.fail(fmt.Errorf("ollama: %s", decoded.Error))
			return false
		}
		if decoded.Done {
			s.done = true
			_ = s.body.Close()
		}
		if decoded.Message.Content != "" {
			s.tok = decoded.Message.Content
			return true
		}
		if s.done {
			return false
		}
	}

	if err := s.sc.Err(); err != nil {
		s.fail(fmt.Errorf("ollama: read stream: %w", err))
		return false
	}
	// body ended without a done frame
	s.fail(fmt.Errorf("ollama: %w", io.ErrUnexpectedEOF))
	return false
}

func (s *ollamaStream) fail(err error) {
	s.err = err
	_ = s.body.Close()
}

func (s *ollamaStream) Token() string { return s.tok }

func (s *ollamaStream) Err() error { return s.err }

func (s *ollamaStream) Close() error {
	if !s.done && s.err == nil {
		s.done = true
	}
	return s.body.Close()
}

func errorBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 4*1024))
	var decoded struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &decoded) == nil && decoded.Error != "" {
		return decoded.Error
	}
	return strings.TrimSpace(string(body))
}
