package sdi12

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCommand parses a raw command byte sequence, from the leading
// address through the '!' terminator, into a Command. It is the inverse
// of Command.AppendWire and is primarily useful for bus monitors and
// sensor-side implementations.
func ParseCommand(raw []byte) (Command, error) {
	if len(raw) < 2 {
		return Command{}, fmt.Errorf("%w: too short", ErrInvalidCommand)
	}
	if raw[len(raw)-1] != '!' {
		return Command{}, fmt.Errorf("%w: missing '!' terminator", ErrInvalidCommand)
	}

	addr, err := NewAddress(raw[0])
	if err != nil {
		return Command{}, err
	}

	body := string(raw[1 : len(raw)-1])

	if addr.IsQuery() {
		if body != "" {
			return Command{}, fmt.Errorf("%w: query address allows no command body", ErrInvalidCommand)
		}

		return AddressQuery(), nil
	}

	switch body {
	case "":
		return AcknowledgeActive(addr), nil
	case "I":
		return SendIdentification(addr), nil
	case "V":
		return StartVerification(addr), nil
	case "HA":
		return StartHighVolumeASCII(addr), nil
	case "HB":
		return StartHighVolumeBinary(addr), nil
	}

	switch {
	case body[0] == 'A' && len(body) == 2:
		newAddr, err := NewAddress(body[1])
		if err != nil || newAddr.IsQuery() {
			return Command{}, fmt.Errorf("%w: %q", ErrInvalidAddress, body[1])
		}

		return ChangeAddress(addr, newAddr), nil

	case body[0] == 'M' || body[0] == 'C':
		return parseMeasurement(addr, body)

	case body[0] == 'D':
		return parseData(addr, body)

	case body[0] == 'R':
		return parseContinuous(addr, body)

	case body[0] == 'I':
		return parseIdentify(addr, body)
	}

	return Extended(addr, body), nil
}

func parseMeasurement(addr Address, body string) (Command, error) {
	code := body
	index := MeasurementBase

	if last := body[len(body)-1]; last >= '0' && last <= '9' {
		code = body[:len(body)-1]
		idx, err := NewMeasurementIndex(int(last - '0'))
		if err != nil {
			return Command{}, err
		}
		index = idx
	}

	switch code {
	case "M":
		return StartMeasurement(addr, index), nil
	case "MC":
		return StartMeasurementCRC(addr, index), nil
	case "C":
		return StartConcurrent(addr, index), nil
	case "CC":
		return StartConcurrentCRC(addr, index), nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrInvalidCommand, body)
	}
}

func parseData(addr Address, body string) (Command, error) {
	binary := strings.HasPrefix(body, "DB")

	digits := body[1:]
	if binary {
		digits = body[2:]
	}
	if !allDigits(digits) || digits == "" {
		return Command{}, fmt.Errorf("%w: %q", ErrInvalidCommand, body)
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return Command{}, fmt.Errorf("%w: %q", ErrInvalidCommand, body)
	}
	index, err := NewDataIndex(n)
	if err != nil {
		return Command{}, err
	}

	if binary {
		return SendBinaryData(addr, index), nil
	}

	return SendData(addr, index), nil
}

func parseContinuous(addr Address, body string) (Command, error) {
	crc := strings.HasPrefix(body, "RC")

	digits := body[1:]
	if crc {
		digits = body[2:]
	}
	// Continuous commands take exactly one index digit.
	if len(digits) != 1 || !allDigits(digits) {
		return Command{}, fmt.Errorf("%w: %q", ErrInvalidCommand, body)
	}

	index, err := NewContinuousIndex(int(digits[0] - '0'))
	if err != nil {
		return Command{}, err
	}

	if crc {
		return ReadContinuousCRC(addr, index), nil
	}

	return ReadContinuous(addr, index), nil
}

func parseIdentify(addr Address, body string) (Command, error) {
	main, paramStr, hasParam := strings.Cut(body, "_")

	param := NoParameter
	if hasParam {
		if len(paramStr) != 3 || !allDigits(paramStr) {
			return Command{}, fmt.Errorf("%w: parameter index must be 3 digits: %q", ErrInvalidCommand, body)
		}
		n, _ := strconv.Atoi(paramStr)
		p, err := NewParameterIndex(n)
		if err != nil {
			return Command{}, err
		}
		param = p
	}

	switch main {
	case "IV":
		return IdentifyVerification(addr, param), nil
	case "IHA":
		return IdentifyHighVolumeASCII(addr, param), nil
	case "IHB":
		return IdentifyHighVolumeBinary(addr, param), nil
	}

	code := main
	indexDigit := byte(0)
	hasIndex := false
	if len(main) >= 3 {
		if last := main[len(main)-1]; last >= '0' && last <= '9' {
			code = main[:len(main)-1]
			indexDigit = last - '0'
			hasIndex = true
		}
	}

	switch code {
	case "IR", "IRC":
		// IR/IRC exist only in the parameter form, with a mandatory R index.
		if !hasParam || !hasIndex {
			return Command{}, fmt.Errorf("%w: %q", ErrInvalidCommand, body)
		}
		index, err := NewContinuousIndex(int(indexDigit))
		if err != nil {
			return Command{}, err
		}
		if code == "IRC" {
			return IdentifyContinuousCRC(addr, index, param), nil
		}

		return IdentifyContinuous(addr, index, param), nil

	case "IM", "IMC", "IC", "ICC":
		index := MeasurementBase
		if hasIndex {
			idx, err := NewMeasurementIndex(int(indexDigit))
			if err != nil {
				return Command{}, err
			}
			index = idx
		}
		switch code {
		case "IM":
			return IdentifyMeasurement(addr, index, param), nil
		case "IMC":
			return IdentifyMeasurementCRC(addr, index, param), nil
		case "IC":
			return IdentifyConcurrent(addr, index, param), nil
		default:
			return IdentifyConcurrentCRC(addr, index, param), nil
		}
	}

	return Command{}, fmt.Errorf("%w: %q", ErrInvalidCommand, body)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
