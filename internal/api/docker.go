package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/distribution/reference"
	"github.com/docker/docker/api/types/image"
	dockerregistry "github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/thesavant42/icr-browser/internal/host"
)

const noneTag = "<none>:<none>"

// DockerOptions configures the credentials a DockerHost sends with pulls.
// The Engine API does not read the CLI credential store itself.
type DockerOptions struct {
	Registry string // credentials are only sent for refs on this registry
	Username string // basic auth; empty resolves credentials from Keychain
	Password string
	Keychain authn.Keychain // nil = authn.DefaultKeychain

	ClientOpts []client.Opt // applied after client.FromEnv
}

// DockerHost runs image operations through the Docker Engine API
type DockerHost struct {
	cli    *client.Client
	opts   DockerOptions
	logger *log.Logger
}

// NewDockerHost connects to the daemon configured in the environment
// (DOCKER_HOST etc.) and checks that it answers.
func NewDockerHost(ctx context.Context, opts DockerOptions, logger *log.Logger) (*DockerHost, error) {
	if logger == nil {
		logger = log.Default()
	}
	if opts.Keychain == nil {
		opts.Keychain = authn.DefaultKeychain
	}
	clientOpts := append([]client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}, opts.ClientOpts...)
	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to reach docker daemon: %w", err)
	}
	return &DockerHost{cli: cli, opts: opts, logger: logger.WithPrefix("docker")}, nil
}

// Close releases the client connection
func (h *DockerHost) Close() error {
	return h.cli.Close()
}

func (h *DockerHost) Available() bool { return true }

// ListLocalImages returns the repo tags of every local image
func (h *DockerHost) ListLocalImages(ctx context.Context) ([]string, error) {
	summaries, err := h.cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	var refs []string
	for _, s := range summaries {
		for _, tag := range s.RepoTags {
			if tag != noneTag {
				refs = append(refs, tag)
			}
		}
	}
	return refs, nil
}

// ExecStreamed runs "pull <ref>" or "rmi <ref>"
func (h *DockerHost) ExecStreamed(ctx context.Context, command string, args []string, hd host.StreamHandlers) error {
	if len(args) != 1 {
		return fmt.Errorf("%s expects one image reference, got %d", command, len(args))
	}
	ref := args[0]

	switch command {
	case host.CommandPull:
		auth, err := h.registryAuth(ref)
		if err != nil {
			return err
		}
		rc, err := h.cli.ImagePull(ctx, ref, image.PullOptions{RegistryAuth: auth})
		if err != nil {
			return fmt.Errorf("failed to start pull: %w", err)
		}
		h.logger.Debug("Pull started", "ref", ref)
		go streamPull(rc, hd)
	case host.CommandRemove:
		go h.remove(ctx, ref, hd)
	default:
		return fmt.Errorf("%w: %s", host.ErrUnknownCommand, command)
	}
	return nil
}

// registryAuth returns the X-Registry-Auth value for pulling ref, or "" to
// pull anonymously
func (h *DockerHost) registryAuth(ref string) (string, error) {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return "", fmt.Errorf("invalid image reference %q: %w", ref, err)
	}
	domain := reference.Domain(named)
	if h.opts.Registry != "" && domain != h.opts.Registry {
		return "", nil
	}

	var cfg *authn.AuthConfig
	if h.opts.Username != "" {
		cfg = &authn.AuthConfig{Username: h.opts.Username, Password: h.opts.Password}
	} else {
		reg, err := name.NewRegistry(domain)
		if err != nil {
			return "", fmt.Errorf("failed to parse registry %q: %w", domain, err)
		}
		auth, err := h.opts.Keychain.Resolve(reg)
		if err != nil {
			return "", fmt.Errorf("failed to resolve credentials for %s: %w", domain, err)
		}
		if auth == authn.Anonymous {
			return "", nil
		}
		if cfg, err = auth.Authorization(); err != nil {
			return "", fmt.Errorf("failed to read credentials for %s: %w", domain, err)
		}
	}

	h.logger.Debug("Using registry credentials", "registry", domain, "username", cfg.Username)
	encoded, err := dockerregistry.EncodeAuthConfig(dockerregistry.AuthConfig{
		Username:      cfg.Username,
		Password:      cfg.Password,
		Auth:          cfg.Auth,
		IdentityToken: cfg.IdentityToken,
		RegistryToken: cfg.RegistryToken,
		ServerAddress: domain,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode credentials: %w", err)
	}
	return encoded, nil
}

func (h *DockerHost) remove(ctx context.Context, ref string, hd host.StreamHandlers) {
	deleted, err := h.cli.ImageRemove(ctx, ref, image.RemoveOptions{})
	if err != nil {
		hd.Error(err)
		hd.Close(1)
		return
	}
	for _, d := range deleted {
		if d.Untagged != "" {
			hd.Output("Untagged: " + d.Untagged)
		}
		if d.Deleted != "" {
			hd.Output("Deleted: " + d.Deleted)
		}
	}
	hd.Close(0)
}

// streamPull turns the daemon's JSON progress stream into the line format
// the docker CLI prints when stdout is not a terminal.
func streamPull(rc io.ReadCloser, hd host.StreamHandlers) {
	defer rc.Close()

	exitCode := 0
	dec := json.NewDecoder(rc)
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if !errors.Is(err, io.EOF) {
				hd.Error(fmt.Errorf("failed to decode pull progress: %w", err))
				exitCode = 1
			}
			break
		}
		if msg.Error != nil {
			hd.Error(msg.Error)
			exitCode = 1
			continue
		}
		if line := FormatMessage(msg); line != "" {
			hd.Output(line)
		}
	}
	hd.Close(exitCode)
}

// FormatMessage renders one progress message as "<id>: <status>"
func FormatMessage(msg jsonmessage.JSONMessage) string {
	if msg.ID == "" {
		return msg.Status
	}
	return msg.ID + ": " + msg.Status
}
