// ABOUTME: mDNS discovery of LAN stream endpoints
// ABOUTME: Advertises the appliance and browses for local Icecast-style servers
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/hashicorp/mdns"
)

// Icecast and compatible servers commonly advertise plain HTTP.
const streamServiceType = "_http._tcp"

// Config holds discovery configuration.
type Config struct {
	DeviceName string
	Port       int
}

// StationInfo describes a discovered stream endpoint.
type StationInfo struct {
	Name string
	Host string
	Port int
}

// URL builds the stream address for a discovered endpoint.
func (s StationInfo) URL() string {
	return fmt.Sprintf("http://%s:%d/", s.Host, s.Port)
}

// Manager handles mDNS advertisement and browsing.
type Manager struct {
	config   Config
	ctx      context.Context
	cancel   context.CancelFunc
	stations chan StationInfo
}

// NewManager creates a discovery manager.
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:   config,
		ctx:      ctx,
		cancel:   cancel,
		stations: make(chan StationInfo, 10),
	}
}

// Advertise announces this appliance on the LAN.
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.DeviceName,
		"_wavecast._tcp",
		"",
		"",
		m.config.Port,
		ips,
		[]string{"role=player"},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s", m.config.DeviceName)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for stream endpoints on the LAN.
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)

		go func() {
			for entry := range entries {
				if entry.AddrV4 == nil {
					continue
				}
				station := StationInfo{
					Name: entry.Name,
					Host: entry.AddrV4.String(),
					Port: entry.Port,
				}

				log.Printf("Discovered stream endpoint: %s at %s:%d",
					station.Name, station.Host, station.Port)

				select {
				case m.stations <- station:
				case <-m.ctx.Done():
					return
				}
			}
		}()

		params := &mdns.QueryParam{
			Service: streamServiceType,
			Domain:  "local",
			Timeout: 3 * time.Second,
			Entries: entries,
		}

		mdns.Query(params)
		close(entries)
	}
}

// Stations returns the channel of discovered endpoints.
func (m *Manager) Stations() <-chan StationInfo {
	return m.stations
}

// Stop stops the discovery manager.
func (m *Manager) Stop() {
	m.cancel()
}

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
			if ipnet, ok := addr.(*net.IPNet); ok {
				if ip4 := ipnet.IP.To4(); ip4 != nil {
					ips = append(ips, ip4)
				}
			}
		}
	}

	if len(ips) == 0 {
		return nil, fmt.Errorf("no usable network interfaces")
	}
	return ips, nil
}
