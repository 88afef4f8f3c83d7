package resp

import (
	"strconv"
	"strings"
	"time"
)

// defaultTTL is used for SET commands without an EX option, matching the
// proxy's own default when a response carries no Cache-Control max-age.
const defaultTTL = 30 * time.Second

type commandFunc func(c *conn, args []string) error

var commands = map[string]commandFunc{
	"PING":    cmdPing,
	"COMMAND": cmdCommand,
	"GET":     cmdGet,
	"SET":     cmdSet,
	"DEL":     cmdDel,
	"EXPIRE":  cmdExpire,
	"TTL":     cmdTTL,
}

func cmdPing(c *conn, args []string) error {
	if len(args) == 0 {
		return c.writeSimpleString("PONG")
	}
	return c.writeBulkString(args[0])
}

// cmdCommand answers the introspection call most RESP client libraries
// issue on connect; an empty array is a valid, if uninteresting, reply.
func cmdCommand(c *conn, _ []string) error {
	return c.writeArray(nil)
}

func cmdGet(c *conn, args []string) error {
	if len(args) != 1 {
		return c.writeError("ERR wrong number of arguments for 'get' command")
	}
	lookup := c.layer.Load().Get(args[0])
	if !lookup.Hit {
		return c.writeNullBulkString()
	}
	return c.writeBulkString(string(lookup.Value.Body))
}

// cmdSet implements SET key value [EX seconds]. Any status/headers are
// not representable over RESP, so SET always stores a 200-status value
// with no headers; that is fine, since RESP clients only ever interact
// with the Body through GET.
func cmdSet(c *conn, args []string) error {
	if len(args) < 2 {
		return c.writeError("ERR wrong number of arguments for 'set' command")
	}
	key, value := args[0], args[1]
	ttl := defaultTTL

	rest := args[2:]
	for i := 0; i < len(rest); i++ {
		if strings.EqualFold(rest[i], "EX") {
			if i+1 >= len(rest) {
				return c.writeError("ERR syntax error")
			}
			secs, err := strconv.Atoi(rest[i+1])
			if err != nil || secs <= 0 {
				return c.writeError("ERR value is not an integer or out of range")
			}
			ttl = time.Duration(secs) * time.Second
			i++
			continue
		}
		return c.writeError("ERR syntax error")
	}

	layer := c.layer.Load()
	cv := layer.BuildValue(200, nil, []byte(value), ttl)
	layer.Insert(key, cv)
	return c.writeSimpleString("OK")
}

func cmdDel(c *conn, args []string) error {
	if len(args) == 0 {
		return c.writeError("ERR wrong number of arguments for 'del' command")
	}
	layer := c.layer.Load()
	removed := 0
	for _, key := range args {
		if layer.Remove(key) {
			removed++
		}
	}
	return c.writeInteger(removed)
}

// cmdExpire is a documented no-op: CachedValue's TTL is fixed at insert
// time and the cache has no in-place TTL mutation, so EXPIRE always
// reports failure (0) rather than silently lying about having applied a
// new expiry.
func cmdExpire(c *conn, args []string) error {
	if len(args) != 2 {
		return c.writeError("ERR wrong number of arguments for 'expire' command")
	}
	return c.writeInteger(0)
}

// cmdTTL reports remaining seconds, -1 if the key has no expiry, or -2 if
// the key does not exist — the standard Redis TTL return convention.
func cmdTTL(c *conn, args []string) error {
	if len(args) != 1 {
		return c.writeError("ERR wrong number of arguments for 'ttl' command")
	}
	layer := c.layer.Load()
	lookup := layer.Get(args[0])
	if !lookup.Hit {
		return c.writeInteger(-2)
	}
	remaining, ok := lookup.Value.TTLRemaining()
	if !ok {
		if lookup.Value.TTL() <= 0 {
			return c.writeInteger(-1)
		}
		return c.writeInteger(-2)
	}
	return c.writeInteger(int(remaining / time.Second))
}
