// Package plumber runs the external pdfplumber helper to turn PDF bytes into
// text and per-page tables. The helper speaks a small JSON contract over
// stdin/stdout; any helper failure means "no structured data available",
// never a hard pipeline failure.
package plumber

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

type commandRunner func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)

type Provider struct {
	python        string
	parseScript   string
	decryptScript string
	timeout       time.Duration
	run           commandRunner
}

type Options struct {
	Python        string
	ParseScript   string
	DecryptScript string
	Timeout       time.Duration
}

func New(opts Options) *Provider {
	python := opts.Python
	if python == "" {
		python = "python3"
	}
	parseScript := opts.ParseScript
	if parseScript == "" {
		parseScript = "scripts/parse_pdf.py"
	}
	decryptScript := opts.DecryptScript
	if decryptScript == "" {
		decryptScript = "scripts/decrypt_pdf.py"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Provider{
		python:        python,
		parseScript:   parseScript,
		decryptScript: decryptScript,
		timeout:       timeout,
		run:           runCommand,
	}
}

type parseResponse struct {
	Success   bool                `json:"success"`
	FullText  string              `json:"fullText"`
	Pages     []domain.ParsedPage `json:"pages"`
	PageCount int                 `json:"pageCount"`
	Error     string              `json:"error"`
}

type decryptResponse struct {
	Success         bool   `json:"success"`
	DecryptedBase64 string `json:"decrypted_base64"`
	IsEncrypted     bool   `json:"is_encrypted"`
	Error           string `json:"error"`
}

// Parse decrypts when needed, then extracts text and tables. Encrypted PDFs
// without a password and wrong passwords surface distinct typed errors so the
// caller can re-prompt instead of failing generically.
func (p *Provider) Parse(ctx context.Context, pdfBytes []byte, password string) (*domain.ParsedDocument, error) {
	encoded := base64.StdEncoding.EncodeToString(pdfBytes)

	encoded, err := p.prepareInput(ctx, encoded, password)
	if err != nil {
		return nil, err
	}

	out, err := p.runScript(ctx, p.parseScript, nil, encoded)
	if err != nil {
		return nil, fmt.Errorf("run pdf parser: %w", err)
	}

	var resp parseResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("decode pdf parser output: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("pdf parser: %s", orUnknown(resp.Error))
	}

	return &domain.ParsedDocument{
		FullText:  resp.FullText,
		Pages:     resp.Pages,
		PageCount: resp.PageCount,
	}, nil
}

func (p *Provider) prepareInput(ctx context.Context, encoded, password string) (string, error) {
	if password != "" {
		out, err := p.runScript(ctx, p.decryptScript, []string{password}, encoded)
		if err != nil {
			return "", fmt.Errorf("run pdf decrypter: %w", err)
		}
		var resp decryptResponse
		if err := json.Unmarshal(out, &resp); err != nil {
			return "", fmt.Errorf("decode pdf decrypter output: %w", err)
		}
		if !resp.Success {
			if resp.IsEncrypted {
				return "", domain.WrapError(domain.ErrDecryptionFailed, "decrypt pdf", fmt.Errorf("%s", orUnknown(resp.Error)))
			}
			return "", fmt.Errorf("pdf decrypter: %s", orUnknown(resp.Error))
		}
		if resp.DecryptedBase64 != "" {
			return resp.DecryptedBase64, nil
		}
		return encoded, nil
	}

	out, err := p.runScript(ctx, p.decryptScript, []string{"--check"}, encoded)
	if err != nil {
		// The probe is advisory; let the parser decide.
		return encoded, nil
	}
	var resp decryptResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return encoded, nil
	}
	if resp.Success && resp.IsEncrypted {
		return "", domain.WrapError(domain.ErrPDFEncrypted, "check pdf encryption", fmt.Errorf("password required"))
	}
	return encoded, nil
}

func (p *Provider) runScript(ctx context.Context, script string, args []string, stdin string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.run(runCtx, p.python, append([]string{script}, args...), []byte(stdin))
}

func runCommand(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

func orUnknown(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return "unknown error"
	}
	return msg
}
