// ABOUTME: mDNS advertisement of the frame publisher
// ABOUTME: Lets browser viewers on the LAN find a running player
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"

	"github.com/hashicorp/mdns"
)

// ServiceType is the advertised mDNS service type
const ServiceType = "_lyricium._tcp"

// Config holds advertisement configuration
type Config struct {
	ServiceName  string
	Port         int
	Path         string
	Product      string
	Manufacturer string
	Version      string
}

// Manager owns the mDNS responder
type Manager struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Path == "" {
		config.Path = "/ws"
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// TXT returns the TXT records published with the service
func (m *Manager) TXT() []string {
	txt := []string{"path=" + m.config.Path}
	if m.config.Product != "" {
		txt = append(txt, "product="+m.config.Product)
	}
	if m.config.Manufacturer != "" {
		txt = append(txt, "manufacturer="+m.config.Manufacturer)
	}
	if m.config.Version != "" {
		txt = append(txt, "version="+m.config.Version)
	}
	return txt
}

// Advertise starts answering mDNS queries until Stop
func (m *Manager) Advertise() error {
	if m.config.Port <= 0 {
		return fmt.Errorf("invalid port %d", m.config.Port)
	}

	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		sanitize(m.config.ServiceName),
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.TXT(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Stop withdraws the advertisement
func (m *Manager) Stop() {
	m.cancel()
}

// sanitize makes a DNS-SD instance label out of a free-form name
func sanitize(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, ".", "-"))
	if name == "" {
		return "lyricium"
	}
	return name
}

// PortFromAddr extracts the numeric port of a listen address like ":8090"
func PortFromAddr(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	port, err := net.LookupPort("tcp", portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	return port, nil
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}

	return ips, nil
}
