package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "n":
		m.app.toggleNotifications()
	case "s":
		m.app.toggleServer()
	case "o":
		m.app.current.ReceiveOnly = !m.app.current.ReceiveOnly
		m.app.persistSettings()
	case "t":
		m.app.cycleTheme()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) viewSettings() string {
	s := m.app.current
	running, port := m.app.Store.ServerState()

	onOff := func(v bool) string {
		if v {
			return okStyle.Render("on")
		}
		return subtleStyle.Render("off")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Device name     %s\n", s.DeviceName))
	b.WriteString(fmt.Sprintf("Port            %d\n", s.Port))
	if running {
		b.WriteString(fmt.Sprintf("Server          %s on :%d\n", okStyle.Render("running"), port))
	} else {
		b.WriteString(fmt.Sprintf("Server          %s\n", subtleStyle.Render("stopped")))
	}
	b.WriteString(fmt.Sprintf("Download dir    %s\n", s.DownloadDir))
	b.WriteString(fmt.Sprintf("Notifications   %s\n", onOff(s.Notifications)))
	b.WriteString(fmt.Sprintf("Receive only    %s\n", onOff(s.ReceiveOnly)))
	b.WriteString(fmt.Sprintf("Theme           %s\n", s.Theme))
	b.WriteString(fmt.Sprintf("Interfaces      wifi %s · ethernet %s · vpn %s · docker %s · other %s\n",
		onOff(s.InterfaceFilters.ShowWifi), onOff(s.InterfaceFilters.ShowEthernet),
		onOff(s.InterfaceFilters.ShowVpn), onOff(s.InterfaceFilters.ShowDocker),
		onOff(s.InterfaceFilters.ShowOther)))
	if len(s.TrustedHosts) > 0 {
		b.WriteString(fmt.Sprintf("Trusted hosts   %s\n", strings.Join(s.TrustedHosts, ", ")))
	} else {
		b.WriteString("Trusted hosts   " + subtleStyle.Render("none") + "\n")
	}
	b.WriteString(helpStyle.Render("\nn notifications · s server start/stop · o receive-only · t theme"))
	return b.String()
}
