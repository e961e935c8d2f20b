package services

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GitRepo publishes a file store directory that is a git working copy.
type GitRepo struct {
	Dir         string
	Remote      string
	Branch      string
	AuthorName  string
	AuthorEmail string
	Log         *zap.Logger

	// OnSync runs after a successful pull, typically to drop cached pages.
	OnSync func()
}

func (g *GitRepo) logger() *zap.Logger {
	if g.Log == nil {
		return zap.NewNop()
	}
	return g.Log
}

func (g *GitRepo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// runWithToken runs git with the remote name replaced by an authenticated
// URL. The token never appears in the returned output.
func (g *GitRepo) runWithToken(ctx context.Context, token string, args ...string) (string, error) {
	out, err := g.run(ctx, "remote", "get-url", g.Remote)
	if err != nil {
		return "Failed to get remote url", err
	}
	remoteURL := strings.TrimSpace(out)

	authenticatedURL := remoteURL
	if token != "" {
		u, err := url.Parse(remoteURL)
		if err != nil {
			return "Invalid remote url", err
		}
		if u.Scheme == "http" || u.Scheme == "https" {
			u.User = url.UserPassword("oauth2", token)
			authenticatedURL = u.String()
		}
	}

	newArgs := make([]string, len(args))
	copy(newArgs, args)
	for i, v := range newArgs {
		if v == g.Remote {
			newArgs[i] = authenticatedURL
		}
	}

	output, err := g.run(ctx, newArgs...)
	return scrub(output, token, authenticatedURL, remoteURL), err
}

func scrub(output, token, authenticatedURL, remoteURL string) string {
	if token == "" {
		return output
	}
	safeLog := strings.ReplaceAll(output, authenticatedURL, remoteURL)
	return strings.ReplaceAll(safeLog, token, "***")
}

// Sync pulls the branch from the remote.
func (g *GitRepo) Sync(ctx context.Context, token string) (string, error) {
	log, err := g.runWithToken(ctx, token, "pull", g.Remote, g.Branch)
	if err != nil {
		g.logger().Warn("git pull failed", zap.String("dir", g.Dir), zap.Error(err))
		return log, fmt.Errorf("git pull: %w", err)
	}
	if g.OnSync != nil {
		g.OnSync()
	}
	g.logger().Info("git pull done", zap.String("dir", g.Dir))
	return log, nil
}

// Publish commits every change in the working copy and pushes it. A clean
// working copy still pushes, so earlier unpushed commits go out.
func (g *GitRepo) Publish(ctx context.Context, token string) (string, error) {
	if out, err := g.run(ctx, "add", "."); err != nil {
		return out, fmt.Errorf("git add: %w", err)
	}

	status, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return status, fmt.Errorf("git status: %w", err)
	}
	var logs []string
	if strings.TrimSpace(status) != "" {
		msg := fmt.Sprintf("Update via sitecms: %s", time.Now().Format("2006-01-02 15:04:05"))
		args := []string{"commit", "-m", msg}
		if g.AuthorName != "" && g.AuthorEmail != "" {
			args = append([]string{"-c", "user.name=" + g.AuthorName, "-c", "user.email=" + g.AuthorEmail}, args...)
		}
		out, err := g.run(ctx, args...)
		if err != nil {
			return out, fmt.Errorf("git commit: %w", err)
		}
		logs = append(logs, out)
	}

	out, err := g.runWithToken(ctx, token, "push", g.Remote, "HEAD:"+g.Branch)
	logs = append(logs, out)
	if err != nil {
		g.logger().Warn("git push failed", zap.String("dir", g.Dir), zap.Error(err))
		return strings.Join(logs, "\n"), fmt.Errorf("git push: %w", err)
	}
	g.logger().Info("git push done", zap.String("dir", g.Dir), zap.String("branch", g.Branch))
	return strings.Join(logs, "\n"), nil
}
