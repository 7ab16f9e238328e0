package protocol

import "github.com/sigurn/crc16"

// The link checksum is CRC-16/MODBUS: reflected, feedback polynomial
// 0xA001, initial value 0xFFFF, no final XOR. Both ends must agree;
// the empty payload checksums to 0xFFFF.
var crcTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// Checksum computes the CRC16 of data.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}
