// Package filter provides pure byte-transform functions applied to
// messages before storage. Filters compose by simple chaining; a nil
// result drops the message.
package filter

// Filter transforms a message. Returning nil drops it.
type Filter func(msg []byte) []byte

// Chain composes filters left to right. The first filter to drop the
// message short-circuits the rest.
func Chain(filters ...Filter) Filter {
	return func(msg []byte) []byte {
		for _, f := range filters {
			if msg == nil {
				return nil
			}
			msg = f(msg)
		}
		return msg
	}
}

// MaxSize passes only messages whose size does not exceed max bytes.
func MaxSize(max int) Filter {
	return func(msg []byte) []byte {
		if msg == nil || len(msg) > max {
			return nil
		}
		return msg
	}
}
