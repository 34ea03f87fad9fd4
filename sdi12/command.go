package sdi12

import (
	"fmt"
	"strconv"
)

// CommandKind identifies an SDI-12 command variant.
type CommandKind int

const (
	// CmdInvalid is the zero value; it never encodes.
	CmdInvalid CommandKind = iota

	// CmdAcknowledgeActive is a! (acknowledge active).
	CmdAcknowledgeActive
	// CmdSendIdentification is aI! (send identification).
	CmdSendIdentification
	// CmdAddressQuery is ?! (address query).
	CmdAddressQuery
	// CmdChangeAddress is aAb! (change address to b).
	CmdChangeAddress
	// CmdStartMeasurement is aM! / aMn! (start measurement).
	CmdStartMeasurement
	// CmdStartMeasurementCRC is aMC! / aMCn! (start measurement, CRC-protected data).
	CmdStartMeasurementCRC
	// CmdStartConcurrent is aC! / aCn! (start concurrent measurement).
	CmdStartConcurrent
	// CmdStartConcurrentCRC is aCC! / aCCn! (start concurrent measurement, CRC-protected data).
	CmdStartConcurrentCRC
	// CmdSendData is aDn! with n in 0-999 (send data).
	CmdSendData
	// CmdSendBinaryData is aDBn! with n in 0-999 (send binary data).
	CmdSendBinaryData
	// CmdReadContinuous is aRn! with n in 0-9 (continuous measurement).
	CmdReadContinuous
	// CmdReadContinuousCRC is aRCn! with n in 0-9 (continuous measurement, CRC-protected).
	CmdReadContinuousCRC
	// CmdStartVerification is aV! (start verification).
	CmdStartVerification
	// CmdStartHighVolumeASCII is aHA! (start high-volume ASCII measurement).
	CmdStartHighVolumeASCII
	// CmdStartHighVolumeBinary is aHB! (start high-volume binary measurement).
	CmdStartHighVolumeBinary
	// CmdIdentifyMeasurement is aIM! / aIMn! and the parameter form aIM[n]_nnn!.
	CmdIdentifyMeasurement
	// CmdIdentifyMeasurementCRC is aIMC! / aIMCn! and the parameter form aIMC[n]_nnn!.
	CmdIdentifyMeasurementCRC
	// CmdIdentifyConcurrent is aIC! / aICn! and the parameter form aIC[n]_nnn!.
	CmdIdentifyConcurrent
	// CmdIdentifyConcurrentCRC is aICC! / aICCn! and the parameter form aICC[n]_nnn!.
	CmdIdentifyConcurrentCRC
	// CmdIdentifyVerification is aIV! and the parameter form aIV_nnn!.
	CmdIdentifyVerification
	// CmdIdentifyContinuous is aIRr_nnn! (parameter form only).
	CmdIdentifyContinuous
	// CmdIdentifyContinuousCRC is aIRCr_nnn! (parameter form only).
	CmdIdentifyContinuousCRC
	// CmdIdentifyHighVolumeASCII is aIHA! and the parameter form aIHA_nnn!.
	CmdIdentifyHighVolumeASCII
	// CmdIdentifyHighVolumeBinary is aIHB! and the parameter form aIHB_nnn!.
	CmdIdentifyHighVolumeBinary
	// CmdExtended is a vendor extended command a<body>!.
	CmdExtended
)

var commandKindNames = map[CommandKind]string{
	CmdAcknowledgeActive:        "AcknowledgeActive",
	CmdSendIdentification:       "SendIdentification",
	CmdAddressQuery:             "AddressQuery",
	CmdChangeAddress:            "ChangeAddress",
	CmdStartMeasurement:         "StartMeasurement",
	CmdStartMeasurementCRC:      "StartMeasurementCRC",
	CmdStartConcurrent:          "StartConcurrent",
	CmdStartConcurrentCRC:       "StartConcurrentCRC",
	CmdSendData:                 "SendData",
	CmdSendBinaryData:           "SendBinaryData",
	CmdReadContinuous:           "ReadContinuous",
	CmdReadContinuousCRC:        "ReadContinuousCRC",
	CmdStartVerification:        "StartVerification",
	CmdStartHighVolumeASCII:     "StartHighVolumeASCII",
	CmdStartHighVolumeBinary:    "StartHighVolumeBinary",
	CmdIdentifyMeasurement:      "IdentifyMeasurement",
	CmdIdentifyMeasurementCRC:   "IdentifyMeasurementCRC",
	CmdIdentifyConcurrent:       "IdentifyConcurrent",
	CmdIdentifyConcurrentCRC:    "IdentifyConcurrentCRC",
	CmdIdentifyVerification:     "IdentifyVerification",
	CmdIdentifyContinuous:       "IdentifyContinuous",
	CmdIdentifyContinuousCRC:    "IdentifyContinuousCRC",
	CmdIdentifyHighVolumeASCII:  "IdentifyHighVolumeASCII",
	CmdIdentifyHighVolumeBinary: "IdentifyHighVolumeBinary",
	CmdExtended:                 "Extended",
}

func (k CommandKind) String() string {
	if name, ok := commandKindNames[k]; ok {
		return name
	}

	return "Invalid"
}

// MaxCommandLen is the longest wire encoding of a standard command,
// e.g. "aICC9_999!". Extended commands may be longer.
const MaxCommandLen = 10

// Command is a single SDI-12 command addressed to one sensor (or, for
// the address query, to the whole bus). Only the fields relevant to
// Kind are meaningful; the constructor functions populate them.
type Command struct {
	Kind       CommandKind
	Address    Address
	NewAddress Address          // ChangeAddress only
	Index      MeasurementIndex // M/MC/C/CC families and their identify forms
	Continuous ContinuousIndex  // R/RC and IR/IRC
	Data       DataIndex        // D/DB
	Param      ParameterIndex   // identify parameter forms; NoParameter for none
	Extended   string           // Extended only: body between address and '!'
}

// --- Constructors ---

// AcknowledgeActive builds a! for addr.
func AcknowledgeActive(addr Address) Command {
	return Command{Kind: CmdAcknowledgeActive, Address: addr}
}

// SendIdentification builds aI! for addr.
func SendIdentification(addr Address) Command {
	return Command{Kind: CmdSendIdentification, Address: addr}
}

// AddressQuery builds ?!.
func AddressQuery() Command {
	return Command{Kind: CmdAddressQuery, Address: QueryAddress}
}

// ChangeAddress builds aAb!, asking the sensor at addr to take newAddr.
func ChangeAddress(addr, newAddr Address) Command {
	return Command{Kind: CmdChangeAddress, Address: addr, NewAddress: newAddr}
}

// StartMeasurement builds aM! (index MeasurementBase) or aMn!.
func StartMeasurement(addr Address, index MeasurementIndex) Command {
	return Command{Kind: CmdStartMeasurement, Address: addr, Index: index}
}

// StartMeasurementCRC builds aMC! or aMCn!.
func StartMeasurementCRC(addr Address, index MeasurementIndex) Command {
	return Command{Kind: CmdStartMeasurementCRC, Address: addr, Index: index}
}

// StartConcurrent builds aC! or aCn!.
func StartConcurrent(addr Address, index MeasurementIndex) Command {
	return Command{Kind: CmdStartConcurrent, Address: addr, Index: index}
}

// StartConcurrentCRC builds aCC! or aCCn!.
func StartConcurrentCRC(addr Address, index MeasurementIndex) Command {
	return Command{Kind: CmdStartConcurrentCRC, Address: addr, Index: index}
}

// SendData builds aDn!.
func SendData(addr Address, index DataIndex) Command {
	return Command{Kind: CmdSendData, Address: addr, Data: index}
}

// SendBinaryData builds aDBn!.
func SendBinaryData(addr Address, index DataIndex) Command {
	return Command{Kind: CmdSendBinaryData, Address: addr, Data: index}
}

// ReadContinuous builds aRn!.
func ReadContinuous(addr Address, index ContinuousIndex) Command {
	return Command{Kind: CmdReadContinuous, Address: addr, Continuous: index}
}

// ReadContinuousCRC builds aRCn!.
func ReadContinuousCRC(addr Address, index ContinuousIndex) Command {
	return Command{Kind: CmdReadContinuousCRC, Address: addr, Continuous: index}
}

// StartVerification builds aV!.
func StartVerification(addr Address) Command {
	return Command{Kind: CmdStartVerification, Address: addr}
}

// StartHighVolumeASCII builds aHA!.
func StartHighVolumeASCII(addr Address) Command {
	return Command{Kind: CmdStartHighVolumeASCII, Address: addr}
}

// StartHighVolumeBinary builds aHB!.
func StartHighVolumeBinary(addr Address) Command {
	return Command{Kind: CmdStartHighVolumeBinary, Address: addr}
}

// IdentifyMeasurement builds aIM! / aIMn!, or the parameter form with param.
func IdentifyMeasurement(addr Address, index MeasurementIndex, param ParameterIndex) Command {
	return Command{Kind: CmdIdentifyMeasurement, Address: addr, Index: index, Param: param}
}

// IdentifyMeasurementCRC builds aIMC! / aIMCn!, or the parameter form with param.
func IdentifyMeasurementCRC(addr Address, index MeasurementIndex, param ParameterIndex) Command {
	return Command{Kind: CmdIdentifyMeasurementCRC, Address: addr, Index: index, Param: param}
}

// IdentifyConcurrent builds aIC! / aICn!, or the parameter form with param.
func IdentifyConcurrent(addr Address, index MeasurementIndex, param ParameterIndex) Command {
	return Command{Kind: CmdIdentifyConcurrent, Address: addr, Index: index, Param: param}
}

// IdentifyConcurrentCRC builds aICC! / aICCn!, or the parameter form with param.
func IdentifyConcurrentCRC(addr Address, index MeasurementIndex, param ParameterIndex) Command {
	return Command{Kind: CmdIdentifyConcurrentCRC, Address: addr, Index: index, Param: param}
}

// IdentifyVerification builds aIV!, or aIV_nnn! with param.
func IdentifyVerification(addr Address, param ParameterIndex) Command {
	return Command{Kind: CmdIdentifyVerification, Address: addr, Param: param}
}

// IdentifyContinuous builds aIRr_nnn!. The parameter index is mandatory.
func IdentifyContinuous(addr Address, index ContinuousIndex, param ParameterIndex) Command {
	return Command{Kind: CmdIdentifyContinuous, Address: addr, Continuous: index, Param: param}
}

// IdentifyContinuousCRC builds aIRCr_nnn!. The parameter index is mandatory.
func IdentifyContinuousCRC(addr Address, index ContinuousIndex, param ParameterIndex) Command {
	return Command{Kind: CmdIdentifyContinuousCRC, Address: addr, Continuous: index, Param: param}
}

// IdentifyHighVolumeASCII builds aIHA!, or aIHA_nnn! with param.
func IdentifyHighVolumeASCII(addr Address, param ParameterIndex) Command {
	return Command{Kind: CmdIdentifyHighVolumeASCII, Address: addr, Param: param}
}

// IdentifyHighVolumeBinary builds aIHB!, or aIHB_nnn! with param.
func IdentifyHighVolumeBinary(addr Address, param ParameterIndex) Command {
	return Command{Kind: CmdIdentifyHighVolumeBinary, Address: addr, Param: param}
}

// Extended builds a vendor extended command a<body>!.
func Extended(addr Address, body string) Command {
	return Command{Kind: CmdExtended, Address: addr, Extended: body}
}

// --- Methods ---

// Validate checks the address and every index the command carries.
func (c *Command) Validate() error {
	if c.Kind == CmdAddressQuery {
		return nil
	}
	if !c.Address.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, byte(c.Address))
	}

	switch c.Kind {
	case CmdChangeAddress:
		if !c.NewAddress.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidAddress, byte(c.NewAddress))
		}

	case CmdStartMeasurement, CmdStartMeasurementCRC, CmdStartConcurrent, CmdStartConcurrentCRC:
		if !c.Index.Valid() {
			return fmt.Errorf("%w: %d", ErrMeasurementIndexRange, c.Index)
		}

	case CmdSendData, CmdSendBinaryData:
		if !c.Data.Valid() {
			return fmt.Errorf("%w: %d", ErrDataIndexRange, c.Data)
		}

	case CmdReadContinuous, CmdReadContinuousCRC:
		if !c.Continuous.Valid() {
			return fmt.Errorf("%w: %d", ErrContinuousIndexRange, c.Continuous)
		}

	case CmdIdentifyMeasurement, CmdIdentifyMeasurementCRC, CmdIdentifyConcurrent, CmdIdentifyConcurrentCRC:
		if !c.Index.Valid() {
			return fmt.Errorf("%w: %d", ErrMeasurementIndexRange, c.Index)
		}
		if !c.Param.Valid() {
			return fmt.Errorf("%w: %d", ErrParameterIndexRange, c.Param)
		}

	case CmdIdentifyVerification, CmdIdentifyHighVolumeASCII, CmdIdentifyHighVolumeBinary:
		if !c.Param.Valid() {
			return fmt.Errorf("%w: %d", ErrParameterIndexRange, c.Param)
		}

	case CmdIdentifyContinuous, CmdIdentifyContinuousCRC:
		if !c.Continuous.Valid() {
			return fmt.Errorf("%w: %d", ErrContinuousIndexRange, c.Continuous)
		}
		if c.Param == NoParameter || !c.Param.Valid() {
			return fmt.Errorf("%w: %d", ErrParameterIndexRange, c.Param)
		}

	case CmdExtended:
		if c.Extended == "" {
			return fmt.Errorf("%w: empty extended command body", ErrInvalidCommand)
		}

	case CmdAcknowledgeActive, CmdSendIdentification, CmdStartVerification,
		CmdStartHighVolumeASCII, CmdStartHighVolumeBinary:
		// Address-only commands.

	default:
		return fmt.Errorf("%w: unknown command kind %d", ErrInvalidCommand, c.Kind)
	}

	return nil
}

// ResponseCRC reports whether the direct response to this command carries
// a 3-character ASCII CRC. True for the CRC measurement variants, the
// high-volume starts, and the identify-parameter forms of those commands.
func (c *Command) ResponseCRC() bool {
	switch c.Kind {
	case CmdStartMeasurementCRC, CmdStartConcurrentCRC, CmdReadContinuousCRC,
		CmdStartHighVolumeASCII, CmdStartHighVolumeBinary:
		return true
	case CmdIdentifyMeasurementCRC, CmdIdentifyConcurrentCRC, CmdIdentifyContinuousCRC,
		CmdIdentifyHighVolumeASCII, CmdIdentifyHighVolumeBinary:
		return c.Param != NoParameter
	default:
		return false
	}
}

// AppendWire validates the command and appends its wire bytes (including
// the trailing '!') to dst.
func (c *Command) AppendWire(dst []byte) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return dst, err
	}

	if c.Kind == CmdAddressQuery {
		return append(dst, byte(QueryAddress), '!'), nil
	}

	dst = append(dst, byte(c.Address))

	switch c.Kind {
	case CmdAcknowledgeActive:
	case CmdSendIdentification:
		dst = append(dst, 'I')
	case CmdChangeAddress:
		dst = append(dst, 'A', byte(c.NewAddress))
	case CmdStartMeasurement:
		dst = appendIndexed(dst, "M", c.Index)
	case CmdStartMeasurementCRC:
		dst = appendIndexed(dst, "MC", c.Index)
	case CmdStartConcurrent:
		dst = appendIndexed(dst, "C", c.Index)
	case CmdStartConcurrentCRC:
		dst = appendIndexed(dst, "CC", c.Index)
	case CmdSendData:
		dst = append(dst, 'D')
		dst = strconv.AppendUint(dst, uint64(c.Data), 10)
	case CmdSendBinaryData:
		dst = append(dst, 'D', 'B')
		dst = strconv.AppendUint(dst, uint64(c.Data), 10)
	case CmdReadContinuous:
		dst = append(dst, 'R', '0'+byte(c.Continuous))
	case CmdReadContinuousCRC:
		dst = append(dst, 'R', 'C', '0'+byte(c.Continuous))
	case CmdStartVerification:
		dst = append(dst, 'V')
	case CmdStartHighVolumeASCII:
		dst = append(dst, 'H', 'A')
	case CmdStartHighVolumeBinary:
		dst = append(dst, 'H', 'B')
	case CmdIdentifyMeasurement:
		dst = appendParam(appendIndexed(dst, "IM", c.Index), c.Param)
	case CmdIdentifyMeasurementCRC:
		dst = appendParam(appendIndexed(dst, "IMC", c.Index), c.Param)
	case CmdIdentifyConcurrent:
		dst = appendParam(appendIndexed(dst, "IC", c.Index), c.Param)
	case CmdIdentifyConcurrentCRC:
		dst = appendParam(appendIndexed(dst, "ICC", c.Index), c.Param)
	case CmdIdentifyVerification:
		dst = appendParam(append(dst, 'I', 'V'), c.Param)
	case CmdIdentifyContinuous:
		dst = appendParam(append(dst, 'I', 'R', '0'+byte(c.Continuous)), c.Param)
	case CmdIdentifyContinuousCRC:
		dst = appendParam(append(dst, 'I', 'R', 'C', '0'+byte(c.Continuous)), c.Param)
	case CmdIdentifyHighVolumeASCII:
		dst = appendParam(append(dst, 'I', 'H', 'A'), c.Param)
	case CmdIdentifyHighVolumeBinary:
		dst = appendParam(append(dst, 'I', 'H', 'B'), c.Param)
	case CmdExtended:
		dst = append(dst, c.Extended...)
	}

	return append(dst, '!'), nil
}

// FormatInto encodes the command into buf and returns the number of
// bytes written. Returns ErrBufferTooSmall if buf cannot hold the
// encoding.
func (c *Command) FormatInto(buf []byte) (int, error) {
	out, err := c.AppendWire(buf[:0])
	if err != nil {
		return 0, err
	}
	// append reallocates exactly when the encoding outgrows buf
	if len(out) > cap(buf) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, len(out), cap(buf))
	}

	return len(out), nil
}

// String returns the wire form of the command, or "" if it is invalid.
func (c *Command) String() string {
	out, err := c.AppendWire(nil)
	if err != nil {
		return ""
	}

	return string(out)
}

func appendIndexed(dst []byte, code string, index MeasurementIndex) []byte {
	dst = append(dst, code...)
	if !index.IsBase() {
		dst = append(dst, '0'+byte(index))
	}

	return dst
}

func appendParam(dst []byte, param ParameterIndex) []byte {
	if param == NoParameter {
		return dst
	}

	return append(dst, '_', '0'+byte(param/100), '0'+byte(param/10%10), '0'+byte(param%10))
}
