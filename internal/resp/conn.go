package resp

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kclaka/colander/cache"
)

// conn handles one client connection's request/response loop: read a
// RESP array of bulk strings, dispatch it, write the reply, repeat until
// the client disconnects or sends a malformed frame.
type conn struct {
	r     *bufio.Reader
	w     *bufio.Writer
	layer *cache.LayerPointer
	log   *zap.Logger
}

func (c *conn) serve() {
	for {
		args, err := c.readCommand()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.Debug("resp read error", zap.Error(err))
			}
			return
		}
		if len(args) == 0 {
			continue
		}
		if err := c.dispatch(args); err != nil {
			c.log.Debug("resp write error", zap.Error(err))
			return
		}
		if err := c.w.Flush(); err != nil {
			return
		}
	}
}

// readCommand reads one RESP2 array-of-bulk-strings frame, e.g.
// "*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n". Inline commands are not supported,
// matching the subset real RESP clients (redis-cli, go-redis) actually
// send.
func (c *conn) readCommand() ([]string, error) {
	line, err := c.readLine()
	if err != nil {
		return nil, err
	}
	if len(line) == 0 || line[0] != '*' {
		return nil, errors.New("resp: expected array header")
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil || n < 0 {
		return nil, errors.New("resp: invalid array length")
	}

	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		bulk, err := c.readBulkString()
		if err != nil {
			return nil, err
		}
		args = append(args, bulk)
	}
	return args, nil
}

func (c *conn) readBulkString() (string, error) {
	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	if len(line) == 0 || line[0] != '$' {
		return "", errors.New("resp: expected bulk string header")
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil {
		return "", errors.New("resp: invalid bulk length")
	}
	if n < 0 {
		return "", nil // null bulk string
	}

	buf := make([]byte, n+2) // payload + trailing CRLF
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

func (c *conn) readLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *conn) dispatch(args []string) error {
	cmd := strings.ToUpper(args[0])
	handler, ok := commands[cmd]
	if !ok {
		return c.writeError("ERR unknown command '" + args[0] + "'")
	}
	return handler(c, args[1:])
}

func (c *conn) writeSimpleString(s string) error {
	_, err := c.w.WriteString("+" + s + "\r\n")
	return err
}

func (c *conn) writeError(msg string) error {
	_, err := c.w.WriteString("-" + msg + "\r\n")
	return err
}

func (c *conn) writeInteger(n int) error {
	_, err := c.w.WriteString(":" + strconv.Itoa(n) + "\r\n")
	return err
}

func (c *conn) writeBulkString(s string) error {
	if _, err := c.w.WriteString("$" + strconv.Itoa(len(s)) + "\r\n"); err != nil {
		return err
	}
	if _, err := c.w.WriteString(s); err != nil {
		return err
	}
	_, err := c.w.WriteString("\r\n")
	return err
}

func (c *conn) writeNullBulkString() error {
	_, err := c.w.WriteString("$-1\r\n")
	return err
}

func (c *conn) writeArray(items []string) error {
	if _, err := c.w.WriteString("*" + strconv.Itoa(len(items)) + "\r\n"); err != nil {
		return err
	}
	for _, item := range items {
		if err := c.writeBulkString(item); err != nil {
			return err
		}
	}
	return nil
}
