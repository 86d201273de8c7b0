package module

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/talon-framework/talon/internal/proto"
	sdk "github.com/talon-framework/talon/pkg/sdk/v1"
)

// TCPBannerModule connects to a TCP port and captures the service banner.
type TCPBannerModule struct {
	log  zerolog.Logger
	grab func(host string, port int, probe string, timeout time.Duration) (string, error)
}

func (m *TCPBannerModule) Meta() sdk.ModuleMeta {
	return sdk.ModuleMeta{
		ID:          "tcp.banner-grab",
		Name:        "TCP Banner Grab",
		Version:     "1.0.0",
		Description: "Connects to a TCP port and records the first line the service announces. Optionally sends a probe string first for services that stay silent until spoken to.",
		Service:     "tcp",
		RiskClass:   sdk.RiskReadOnly,
		Options: []sdk.OptionSpec{
			{Name: "host", Kind: sdk.KindString, Description: "Target host or IP"},
			{Name: "port", Kind: sdk.KindInt, Description: "Target TCP port"},
			{Name: "send_probe", Kind: sdk.KindBool, Default: false, Description: "Send a probe string before reading"},
			{
				Name: "probe", Kind: sdk.KindString, Default: "HEAD / HTTP/1.0",
				Description: "Probe string to send",
				When:        &sdk.WhenEquals{Option: "send_probe", AnyOf: []string{"true"}},
			},
			{Name: "timeout_ms", Kind: sdk.KindInt, Default: 5000, Description: "Connection timeout in milliseconds"},
		},
		Author: "TALON Core",
	}
}

func (m *TCPBannerModule) Run(ctx sdk.RunContext, prog sdk.Progress) sdk.RunResult {
	host := ctx.AnswerString("host")
	if host == "" {
		return sdk.ErrResult(fmt.Errorf("host is required"))
	}
	port := ctx.AnswerInt("port")
	if port <= 0 || port > 65535 {
		return sdk.ErrResult(fmt.Errorf("port %d out of range", port))
	}

	probe := ""
	if ctx.AnswerBool("send_probe") {
		probe = ctx.AnswerString("probe")
	}

	grab := m.grab
	if grab == nil {
		grab = proto.GrabBanner
	}

	timeout := time.Duration(ctx.AnswerInt("timeout_ms")) * time.Millisecond
	banner, err := grab(host, port, probe, timeout)
	if err != nil {
		return sdk.ErrResult(err)
	}
	if banner == "" {
		return sdk.RunResult{}
	}

	m.log.Debug().Str("host", host).Int("port", port).Msg("banner captured")

	prog.Finding(sdk.Finding{Values: []string{banner}, Valid: true})

	return sdk.RunResult{
		Outputs: map[string]any{
			"banner": banner,
			"host":   host,
			"port":   port,
		},
	}
}
