package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"

	"github.com/google/go-github/v57/github"
	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"

	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
)

// Service archives generated artifacts to a GitHub repository using the
// contents API. Each date key owns three files: content/<date>.json,
// digests/<date>.md, sources/<date>.md, committed under the configured
// base path.
type Service struct {
	client *github.Client
	cfg    common.ArchiveConfig
	logger arbor.ILogger
}

var _ interfaces.ArchiveService = (*Service)(nil)

// NewService builds the archive publisher. A disabled config yields a
// service that reports Enabled() == false and publishes nothing.
func NewService(cfg common.ArchiveConfig, logger arbor.ILogger) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		logger: logger,
	}
	if !cfg.Enabled {
		return s, nil
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("archive token is required when the archive is enabled")
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("archive owner and repo are required when the archive is enabled")
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	s.client = github.NewClient(tc)

	return s, nil
}

// Enabled reports whether the archive is configured
func (s *Service) Enabled() bool {
	return s.client != nil
}

// PublishContent commits the content record JSON for its date key
func (s *Service) PublishContent(ctx context.Context, content *models.DailyContent) error {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode content record: %w", err)
	}
	filePath := s.archivePath("content", content.Date+".json")
	return s.commitFile(ctx, filePath, fmt.Sprintf("Archive content for %s", content.Date), data)
}

// PublishDigest commits the markdown digest for a date key
func (s *Service) PublishDigest(ctx context.Context, dateKey string, markdown string) error {
	filePath := s.archivePath("digests", dateKey+".md")
	return s.commitFile(ctx, filePath, fmt.Sprintf("Archive digest for %s", dateKey), []byte(markdown))
}

// PublishCorpus commits the scraped source markdown for a date key
func (s *Service) PublishCorpus(ctx context.Context, dateKey string, markdown string) error {
	filePath := s.archivePath("sources", dateKey+".md")
	return s.commitFile(ctx, filePath, fmt.Sprintf("Archive sources for %s", dateKey), []byte(markdown))
}

func (s *Service) archivePath(kind, name string) string {
	return path.Join(s.cfg.BasePath, kind, name)
}

// commitFile creates or updates one file on the configured branch. The
// contents API requires the current blob SHA to overwrite, so existing
// files are looked up first.
func (s *Service) commitFile(ctx context.Context, filePath, message string, data []byte) error {
	if s.client == nil {
		return nil
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: data,
	}
	if s.cfg.Branch != "" {
		opts.Branch = github.String(s.cfg.Branch)
	}
	if s.cfg.CommitterName != "" && s.cfg.CommitterEmail != "" {
		opts.Committer = &github.CommitAuthor{
			Name:  github.String(s.cfg.CommitterName),
			Email: github.String(s.cfg.CommitterEmail),
		}
	}

	sha, err := s.existingSHA(ctx, filePath)
	if err != nil {
		return err
	}

	if sha == "" {
		_, _, err = s.client.Repositories.CreateFile(ctx, s.cfg.Owner, s.cfg.Repo, filePath, opts)
	} else {
		opts.SHA = github.String(sha)
		_, _, err = s.client.Repositories.UpdateFile(ctx, s.cfg.Owner, s.cfg.Repo, filePath, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to commit %s: %w", filePath, err)
	}

	s.logger.Info().
		Str("path", filePath).
		Str("repo", s.cfg.Owner+"/"+s.cfg.Repo).
		Bool("update", sha != "").
		Msg("Archived file")
	return nil
}

func (s *Service) existingSHA(ctx context.Context, filePath string) (string, error) {
	var opts *github.RepositoryContentGetOptions
	if s.cfg.Branch != "" {
		opts = &github.RepositoryContentGetOptions{Ref: s.cfg.Branch}
	}

	fileContent, _, resp, err := s.client.Repositories.GetContents(ctx, s.cfg.Owner, s.cfg.Repo, filePath, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to check existing archive file %s: %w", filePath, err)
	}
	if fileContent == nil {
		return "", fmt.Errorf("archive path %s is a directory", filePath)
	}
	return fileContent.GetSHA(), nil
}
