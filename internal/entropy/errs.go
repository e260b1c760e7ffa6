package entropy

import "github.com/pkg/errors"

// ErrShortPacketHeaderData is returned when a code-block's declared pass
// lengths require more bytes than the packet actually delivered.
var ErrShortPacketHeaderData = errors.New("entropy: packet header data shorter than declared pass lengths")
