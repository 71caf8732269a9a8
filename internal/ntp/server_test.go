package ntp

import (
	"encoding/binary"
	"net"
	"testing"
	"time"
)

// ntpEpochOffset is the number of seconds from 1900 to 1970.
const ntpEpochOffset = 2208988800

func putNTPTime(b []byte, t time.Time) {
	sec := uint32(t.Unix() + ntpEpochOffset)
	frac := uint64(t.Nanosecond()) * (1 << 32) / 1000000000
	binary.BigEndian.PutUint32(b[0:4], sec)
	binary.BigEndian.PutUint32(b[4:8], uint32(frac))
}

// startTestServer answers SNTP client requests on a loopback port with the
// given stratum and returns its "host:port".
func startTestServer(t *testing.T, stratum uint8) string {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 128)
		for {
			n, peer, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			if n < 48 || buf[0]&0x07 != 3 { // client mode
				continue
			}

			now := time.Now()
			out := make([]byte, 48)
			out[0] = (0 << 6) | (4 << 3) | 4 // LI=0, VN=4, Mode=server
			out[1] = stratum
			out[2] = 4
			out[3] = byte(0xEC) // precision -20
			binary.BigEndian.PutUint32(out[12:16], 0x4C4F434C) // LOCL
			putNTPTime(out[16:24], now)                          // reference
			copy(out[24:32], buf[40:48])                         // originate = client transmit
			putNTPTime(out[32:40], now)                          // receive
			putNTPTime(out[40:48], time.Now())                   // transmit

			conn.WriteTo(out, peer)
		}
	}()

	return conn.LocalAddr().String()
}
