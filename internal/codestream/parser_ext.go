package codestream

import "fmt"

// readComponentIndex mirrors the convention readCOC/readQCC already use:
// a one-byte component index when there are fewer than 257 components,
// two bytes otherwise.
func (p *Parser) readComponentIndex() (uint16, error) {
	if p.header.NumComponents < 257 {
		b, err := p.readByte()
		return uint16(b), err
	}
	return p.readUint16()
}

// readRGN reads the RGN (region of interest) marker segment.
func (p *Parser) readRGN() error {
	_, err := p.readUint16() // Lrgn
	if err != nil {
		return err
	}
	compIndex, err := p.readComponentIndex()
	if err != nil {
		return err
	}
	srgn, err := p.readByte()
	if err != nil {
		return err
	}
	sprgn, err := p.readByte()
	if err != nil {
		return err
	}
	p.header.RegionShifts = append(p.header.RegionShifts, RegionShift{
		ComponentIndex: compIndex,
		Style:          srgn,
		ShiftValue:     sprgn,
	})
	return nil
}

// readCBD reads the CBD (component bit depth) marker segment.
func (p *Parser) readCBD() error {
	length, err := p.readUint16()
	if err != nil {
		return err
	}
	numComps, err := p.readUint16()
	if err != nil {
		return err
	}
	cbd := &ComponentBitDepths{Depths: make([]ComponentInfo, 0, numComps)}
	remaining := int(length) - 4
	for remaining > 0 {
		b, err := p.readByte()
		if err != nil {
			return err
		}
		cbd.Depths = append(cbd.Depths, ComponentInfo{BitDepth: b})
		remaining--
	}
	p.header.ComponentBitDepths = cbd
	return nil
}

// readMCT reads one MCT (multiple component transform collection) marker
// segment: an arrayed matrix, offset vector, or dependency array referenced
// by index from an MCC segment.
func (p *Parser) readMCT() error {
	length, err := p.readUint16()
	if err != nil {
		return err
	}
	smct, err := p.readByte()
	if err != nil {
		return err
	}
	_, err = p.readByte() // reserved high byte of Smct in some profiles; kept for alignment
	if err != nil {
		return err
	}
	seg := MCTSegment{
		Index:       smct & 0xFF,
		ArrayType:   (smct >> 0) & 0x03,
		ElementSize: (smct >> 2) & 0x03,
	}
	remaining := int(length) - 5
	if remaining > 0 {
		data, err := p.readBytes(remaining)
		if err != nil {
			return err
		}
		seg.Data = data
	}
	p.header.MCTSegments = append(p.header.MCTSegments, seg)
	return nil
}

// readMCC reads one MCC (multiple component transform component collection)
// marker segment: the component sets a transform (identity or an MCT-array
// referenced transform) applies to.
func (p *Parser) readMCC() error {
	length, err := p.readUint16()
	if err != nil {
		return err
	}
	_, err = p.readUint16() // Zmcc, index component; single-segment case assumed
	if err != nil {
		return err
	}
	index, err := p.readByte()
	if err != nil {
		return err
	}
	collType, err := p.readByte()
	if err != nil {
		return err
	}
	numInput, err := p.readUint16()
	if err != nil {
		return err
	}
	seg := MCCSegment{Index: index, CollectionType: collType}
	for i := 0; i < int(numInput); i++ {
		c, err := p.readComponentIndex()
		if err != nil {
			return err
		}
		seg.InputComps = append(seg.InputComps, c)
	}
	numOutput, err := p.readUint16()
	if err != nil {
		return err
	}
	for i := 0; i < int(numOutput); i++ {
		c, err := p.readComponentIndex()
		if err != nil {
			return err
		}
		seg.OutputComps = append(seg.OutputComps, c)
	}
	consumed := 2 + 1 + 1 + 2 + int(numInput)*componentWidth(p.header.NumComponents) + 2 + int(numOutput)*componentWidth(p.header.NumComponents)
	remaining := int(length) - consumed
	for remaining > 0 {
		mctIdx, err := p.readByte()
		if err != nil {
			return err
		}
		seg.MCTIndices = append(seg.MCTIndices, mctIdx)
		remaining--
	}
	p.header.MCCSegments = append(p.header.MCCSegments, seg)
	return nil
}

// readMCO reads the MCO (multiple component transform ordering) marker
// segment: the sequence in which MCC collections are applied.
func (p *Parser) readMCO() error {
	length, err := p.readUint16()
	if err != nil {
		return err
	}
	numColl, err := p.readByte()
	if err != nil {
		return err
	}
	if int(length)-3 != int(numColl) {
		return fmt.Errorf("MCO length mismatch: Lmco=%d implies %d entries, Nmco=%d", length, int(length)-3, numColl)
	}
	seg := MCOSegment{}
	for i := 0; i < int(numColl); i++ {
		idx, err := p.readByte()
		if err != nil {
			return err
		}
		seg.CollectionIndices = append(seg.CollectionIndices, idx)
	}
	p.header.MCOSegments = append(p.header.MCOSegments, seg)
	return nil
}

func componentWidth(numComponents uint16) int {
	if numComponents < 257 {
		return 1
	}
	return 2
}
