package provision

import "fmt"

// StageConnect is the synthetic first stage covering the reachability probe
// and SSH handshake. No remote command runs during it, so a connect failure
// leaves no partial state behind.
const StageConnect = "connect"

// Stage is one discrete, ordered provisioning step.
type Stage struct {
	Name    string
	Command string
}

// Request holds everything one provisioning run needs. The password lives
// only in memory for the duration of the call.
type Request struct {
	IP          string
	Password    string
	ServicePort int
	APIPort     int

	// Certificate is the base64 client certificate blob, passed through
	// unmodified into the remote certificate file.
	Certificate string
}

// BuildStages returns the fixed command sequence for req. The sequence
// mirrors the node install script: system update, dependencies, Docker,
// node software checkout, certificate placement, compose file, service
// start. Stages are safe to repeat, so recovery from a partial failure is
// re-running the whole sequence.
func BuildStages(req Request) []Stage {
	return []Stage{
		{
			Name:    "system-update",
			Command: "apt-get update -y",
		},
		{
			Name:    "install-deps",
			Command: "apt-get install -y socat git curl",
		},
		{
			Name:    "install-docker",
			Command: "command -v docker >/dev/null 2>&1 || curl -fsSL https://get.docker.com | sh",
		},
		{
			Name:    "fetch-node",
			Command: "git clone https://github.com/Gozargah/Marzban-node /opt/marzban-node 2>/dev/null || git -C /opt/marzban-node pull",
		},
		{
			Name: "place-certificate",
			Command: fmt.Sprintf(`mkdir -p /var/lib/marzban-node && cat > /var/lib/marzban-node/ssl_client_cert.pem <<'CERTEOF'
%s
CERTEOF
chmod 644 /var/lib/marzban-node/ssl_client_cert.pem`, req.Certificate),
		},
		{
			Name: "write-compose",
			Command: fmt.Sprintf(`cat > /opt/marzban-node/docker-compose.yml <<'COMPOSEEOF'
services:
  marzban-node:
    image: gozargah/marzban-node:latest
    restart: always
    network_mode: host
    volumes:
      - /var/lib/marzban-node:/var/lib/marzban-node
    environment:
      SSL_CLIENT_CERT_FILE: "/var/lib/marzban-node/ssl_client_cert.pem"
      SERVICE_PROTOCOL: rest
      SERVICE_PORT: %d
      XRAY_API_PORT: %d
COMPOSEEOF`, req.ServicePort, req.APIPort),
		},
		{
			Name:    "start-service",
			Command: "cd /opt/marzban-node && docker compose up -d",
		},
	}
}
