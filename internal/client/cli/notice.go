package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/iudanet/cartsync/internal/client/cart"
	"github.com/iudanet/cartsync/internal/client/iocli"
	"github.com/iudanet/cartsync/internal/client/recovery"
)

type styles struct {
	success  lipgloss.Style
	subtle   lipgloss.Style
	severity map[recovery.Severity]lipgloss.Style
	plain    bool
}

// newStyles подбирает стили под вывод. Вне терминала цвета не используются.
func newStyles(out iocli.IO) styles {
	if out == nil || !out.IsTerminal() {
		plain := lipgloss.NewStyle()
		return styles{
			success: plain,
			subtle:  plain,
			severity: map[recovery.Severity]lipgloss.Style{
				recovery.SeverityLow:      plain,
				recovery.SeverityMedium:   plain,
				recovery.SeverityHigh:     plain,
				recovery.SeverityCritical: plain,
			},
			plain: true,
		}
	}

	return styles{
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		subtle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		severity: map[recovery.Severity]lipgloss.Style{
			recovery.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
			recovery.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			recovery.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
			recovery.SeverityCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		},
	}
}

func (s styles) forSeverity(sev recovery.Severity) lipgloss.Style {
	if st, ok := s.severity[sev]; ok {
		return st
	}
	return s.severity[recovery.SeverityMedium]
}

// notice печатает ошибку корзины с цветом по важности
func (c *Cli) notice(info cart.ErrorInfo) {
	label := "Warning"
	if info.Severity >= recovery.SeverityHigh {
		label = "ERROR"
	}
	line := fmt.Sprintf("%s: %s failed: %s [%s]", label, info.Operation, info.Message, info.Category)
	c.io.Println(c.styles.forSeverity(info.Severity).Render(line))
}

func (c *Cli) success(format string, a ...any) {
	c.io.Println(c.styles.success.Render(fmt.Sprintf(format, a...)))
}

func (c *Cli) hint(format string, a ...any) {
	c.io.Println(c.styles.subtle.Render(fmt.Sprintf(format, a...)))
}
