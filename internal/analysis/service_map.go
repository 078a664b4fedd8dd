package analysis

import "strconv"

var commonPorts = map[int]string{
	20:    "FTP-DATA",
	21:    "FTP",
	22:    "SSH",
	23:    "Telnet",
	80:    "HTTP",
	443:   "HTTPS",
	20002: "ZVT-Alt",
	20007: "ZVT-TLS",
	22000: "ZVT",
}

// GetServiceName returns the common name for a port, or the port number as a string.
func GetServiceName(port int) string {
	if name, ok := commonPorts[port]; ok {
		return name
	}
	return strconv.Itoa(port)
}

// flowService names the service of a TCP segment, preferring whichever side
// is a well known port.
func flowService(srcPort, dstPort int) string {
	if _, ok := commonPorts[dstPort]; !ok {
		if _, ok := commonPorts[srcPort]; ok {
			return GetServiceName(srcPort)
		}
		if dstPort == 0 {
			return ""
		}
	}
	return GetServiceName(dstPort)
}
