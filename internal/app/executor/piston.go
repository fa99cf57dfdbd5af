package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const maxResponseBytes = 4 << 20

type Config struct {
	URL      string
	Timeout  time.Duration
	Versions map[string]string
}

// PistonClient talks to a Piston-compatible execute endpoint.
type PistonClient struct {
	url      string
	http     *http.Client
	versions map[string]string
}

func NewPistonClient(cfg Config) *PistonClient {
	return &PistonClient{
		url:      cfg.URL,
		http:     &http.Client{Timeout: cfg.Timeout},
		versions: cfg.Versions,
	}
}

type pistonFile struct {
	Content string `json:"content"`
}

type pistonRequest struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Files    []pistonFile `json:"files"`
	Stdin    string       `json:"stdin"`
}

type pistonResponse struct {
	Message string `json:"message"`
	Run     *struct {
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
		Output string `json:"output"`
		Code   *int   `json:"code"`
	} `json:"run"`
}

var ErrMalformedResponse = errors.New("malformed response from execution service")

func (p *PistonClient) Execute(ctx context.Context, req Request) Result {
	res, err := p.execute(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("module", "executor").Str("language", req.Language).Msg("execution failed")
		return Failure(err.Error())
	}
	return res
}

func (p *PistonClient) version(language string) string {
	if v, ok := p.versions[language]; ok && v != "" {
		return v
	}
	return "*"
}

func (p *PistonClient) execute(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(pistonRequest{
		Language: req.Language,
		Version:  p.version(req.Language),
		Files:    []pistonFile{{Content: req.Source}},
		Stdin:    req.Stdin,
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("execution service unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	var out pistonResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && out.Message != "" {
			return Result{}, fmt.Errorf("execution service: %s", out.Message)
		}
		return Result{}, fmt.Errorf("execution service returned %s", resp.Status)
	}
	if decodeErr != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)
	}
	if out.Run == nil {
		return Result{}, ErrMalformedResponse
	}

	log.Debug().Str("module", "executor").Str("language", req.Language).Int("status", resp.StatusCode).Msg("execution finished")
	return Result{
		Stdout: out.Run.Stdout,
		Stderr: out.Run.Stderr,
		Output: out.Run.Output,
		Code:   out.Run.Code,
	}, nil
}
