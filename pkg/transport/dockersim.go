package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

// Sandbox is a Transport backed by a containerized chassis simulator: a
// Docker image that speaks the same get/set/apply vocabulary as a real
// chassis but runs entirely on the local machine, for integration tests that
// want a real process boundary without real lab hardware.
// Uses the Docker API client wrapper and ExecCommand-style create/attach/
// read/inspect-exit-code sequence, with container lifecycle managed the
// same way as a sidecar: create with NET_ADMIN/NET_RAW, AutoRemove, track
// by ID, idempotent destroy.
type Sandbox struct {
	cli         *client.Client
	image       string
	containerID string
}

// SandboxConfig names the simulator image to run. The image is expected to
// expose a single entrypoint, impair-simd, that reads one JSON-encoded
// sandboxRequest per exec and writes one JSON-encoded sandboxResponse to
// stdout.
type SandboxConfig struct {
	Image string
}

// NewSandbox starts a fresh chassis-simulator container. The caller owns the
// returned Sandbox and must Close it to stop and remove the container.
func NewSandbox(ctx context.Context, cfg SandboxConfig) (*Sandbox, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, &TransportError{Op: "sandbox-connect", Cause: err}
	}

	name := fmt.Sprintf("impair-sandbox-%d", time.Now().UnixNano())

	containerCfg := &container.Config{
		Image: cfg.Image,
		Cmd:   []string{"sleep", "infinity"},
		Tty:   false,
	}
	hostCfg := &container.HostConfig{
		CapAdd:     []string{"NET_ADMIN", "NET_RAW"},
		AutoRemove: true,
	}

	resp, err := cli.ContainerCreate(ctx, containerCfg, hostCfg, &network.NetworkingConfig{}, (*specs.Platform)(nil), name)
	if err != nil {
		_ = cli.Close()
		return nil, &TransportError{Op: "sandbox-create", Cause: err}
	}

	if err := cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		_ = cli.Close()
		return nil, &TransportError{Op: "sandbox-start", Cause: err}
	}

	return &Sandbox{cli: cli, image: cfg.Image, containerID: resp.ID}, nil
}

// sandboxRequest/sandboxResponse are the wire shape exec'd into the
// simulator container, standing in for the real chassis's binary protocol,
// which this module treats as an external collaborator out of scope here.
type sandboxRequest struct {
	Op       string            `json:"op"`
	Resource string            `json:"resource"`
	Path     string            `json:"path,omitempty"`
	Params   map[string]any    `json:"params,omitempty"`
	Session  string            `json:"session,omitempty"`
	Paths    []string          `json:"paths,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

type sandboxResponse struct {
	OK     bool           `json:"ok"`
	Fields map[string]any `json:"fields,omitempty"`
	SetAt  time.Time      `json:"setAt,omitempty"`
	State  string         `json:"state,omitempty"`
	Error  string         `json:"error,omitempty"`
	NotSet bool           `json:"notSet,omitempty"`
}

func (s *Sandbox) exec(ctx context.Context, req sandboxRequest) (sandboxResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return sandboxResponse{}, err
	}

	cmd := []string{"impair-simd", "-req", string(payload)}
	execID, err := s.cli.ContainerExecCreate(ctx, s.containerID, types.ExecConfig{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return sandboxResponse{}, fmt.Errorf("exec create: %w", err)
	}

	attach, err := s.cli.ContainerExecAttach(ctx, execID.ID, types.ExecStartCheck{})
	if err != nil {
		return sandboxResponse{}, fmt.Errorf("exec attach: %w", err)
	}
	defer attach.Close()

	var out bytes.Buffer
	if _, err := io.Copy(&out, attach.Reader); err != nil {
		return sandboxResponse{}, fmt.Errorf("read exec output: %w", err)
	}

	inspect, err := s.cli.ContainerExecInspect(ctx, execID.ID)
	if err != nil {
		return sandboxResponse{}, fmt.Errorf("exec inspect: %w", err)
	}
	if inspect.ExitCode != 0 {
		return sandboxResponse{}, fmt.Errorf("impair-simd exited %d: %s", inspect.ExitCode, out.String())
	}

	var resp sandboxResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		return sandboxResponse{}, fmt.Errorf("decode impair-simd response: %w", err)
	}
	return resp, nil
}

func (s *Sandbox) Get(ctx context.Context, tok GetToken) (Response, error) {
	resp, err := s.exec(ctx, sandboxRequest{Op: "get", Resource: tok.Resource.String(), Path: tok.Path})
	if err != nil {
		return Response{}, &TransportError{Op: "get", Cause: err}
	}
	if resp.NotSet {
		return Response{}, ErrNotValid
	}
	if !resp.OK {
		return Response{}, &TransportError{Op: "get", Cause: fmt.Errorf("%s", resp.Error)}
	}
	return Response{Path: tok.Path, Fields: resp.Fields, SetAt: resp.SetAt}, nil
}

func (s *Sandbox) Set(ctx context.Context, tok SetToken) error {
	resp, err := s.exec(ctx, sandboxRequest{Op: "set", Resource: tok.Resource.String(), Path: tok.Path, Params: tok.Params})
	if err != nil {
		return &TransportError{Op: "set", Cause: err}
	}
	if !resp.OK {
		return &TransportError{Op: "set", Cause: fmt.Errorf("%s", resp.Error)}
	}
	return nil
}

func (s *Sandbox) Apply(ctx context.Context, toks ...Token) (*BatchResult, error) {
	setMode, mixed := IsSetMode(toks)
	if mixed {
		return nil, &TransportError{Op: "apply", Cause: errMixedBatch}
	}

	exec := func(ctx context.Context, tok Token) (Response, error) {
		switch t := tok.(type) {
		case SetToken:
			return Response{}, s.Set(ctx, t)
		case GetToken:
			return s.Get(ctx, t)
		default:
			return Response{}, errUnknownToken
		}
	}

	if setMode {
		if err := RunSetBatch(ctx, exec, toks); err != nil {
			return nil, err
		}
		return &BatchResult{}, nil
	}
	return RunGetBatch(ctx, exec, toks), nil
}

func (s *Sandbox) Reserve(ctx context.Context, target ResourceRef, sessionID string) error {
	resp, err := s.exec(ctx, sandboxRequest{Op: "reserve", Resource: target.String(), Session: sessionID})
	if err != nil {
		return &TransportError{Op: "reserve", Cause: err}
	}
	if !resp.OK {
		return &TransportError{Op: "reserve", Cause: fmt.Errorf("%s", resp.Error)}
	}
	return nil
}

func (s *Sandbox) Release(ctx context.Context, target ResourceRef, sessionID string) error {
	resp, err := s.exec(ctx, sandboxRequest{Op: "release", Resource: target.String(), Session: sessionID})
	if err != nil {
		return &TransportError{Op: "release", Cause: err}
	}
	if !resp.OK {
		return &TransportError{Op: "release", Cause: fmt.Errorf("%s", resp.Error)}
	}
	return nil
}

func (s *Sandbox) Relinquish(ctx context.Context, target ResourceRef) error {
	resp, err := s.exec(ctx, sandboxRequest{Op: "relinquish", Resource: target.String()})
	if err != nil {
		return &TransportError{Op: "relinquish", Cause: err}
	}
	if !resp.OK {
		return &TransportError{Op: "relinquish", Cause: fmt.Errorf("%s", resp.Error)}
	}
	return nil
}

func (s *Sandbox) ReservationState(ctx context.Context, target ResourceRef, sessionID string) (ReservationState, error) {
	resp, err := s.exec(ctx, sandboxRequest{Op: "reservation-state", Resource: target.String(), Session: sessionID})
	if err != nil {
		return "", &TransportError{Op: "reservation-state", Cause: err}
	}
	return ReservationState(resp.State), nil
}

// Subscribe is not implemented against the container sandbox: the simulator
// image has no push channel, only request/response exec. Callers that need
// change notifications against a Sandbox should poll ReservationState or Get
// instead.
func (s *Sandbox) Subscribe(ctx context.Context, kinds ...EventKind) (<-chan Event, error) {
	return nil, &TransportError{Op: "subscribe", Cause: fmt.Errorf("sandbox transport has no event channel")}
}

// Close stops and removes the sandbox container: stop then force-remove,
// treating "already gone" as success since AutoRemove may have already
// cleaned it up.
func (s *Sandbox) Close() error {
	if s.containerID != "" {
		timeout := 5
		_ = s.cli.ContainerStop(context.Background(), s.containerID, container.StopOptions{Timeout: &timeout})
		_ = s.cli.ContainerRemove(context.Background(), s.containerID, types.ContainerRemoveOptions{Force: true})
	}
	return s.cli.Close()
}
