package pgn

// fastPacketPGNs is the static table consulted by the CAN-frame dispatcher
// (spec.md §4.4.3) to decide whether a single-frame CanFrame must instead be
// routed through fast-packet reassembly. Grounded on the PGN list commonly
// passed to the teacher's fastpacket.NewFastPacketAssembler (see
// fastpacket_test.go's `NewFastPacketAssembler([]uint32{126983, 61184, 130323})`)
// extended with the other widely-documented NMEA 2000 fast-packet PGNs.
var fastPacketPGNs = map[uint32]bool{
	61184:  true,
	65240:  true,
	126208: true,
	126464: true,
	126720: true,
	126983: true,
	126984: true,
	126985: true,
	126986: true,
	126987: true,
	126988: true,
	126996: true,
	126998: true,
	127489: true,
	127506: true,
	127510: true,
	128275: true,
	129029: true,
	129038: true,
	129039: true,
	129040: true,
	129041: true,
	129284: true,
	129285: true,
	129540: true,
	129541: true,
	129542: true,
	129545: true,
	129547: true,
	129549: true,
	129551: true,
	129556: true,
	129792: true,
	129793: true,
	129794: true,
	129795: true,
	129796: true,
	129797: true,
	129798: true,
	129799: true,
	129800: true,
	129801: true,
	129802: true,
	129803: true,
	129804: true,
	129805: true,
	129806: true,
	129807: true,
	129808: true,
	129809: true,
	129810: true,
	130060: true,
	130061: true,
	130064: true,
	130065: true,
	130066: true,
	130067: true,
	130068: true,
	130069: true,
	130070: true,
	130071: true,
	130072: true,
	130073: true,
	130074: true,
	130320: true,
	130321: true,
	130322: true,
	130323: true,
	130324: true,
	130560: true,
	130561: true,
	130562: true,
	130563: true,
	130564: true,
	130565: true,
	130566: true,
	130567: true,
	130577: true,
	130578: true,
	130815: true,
	130816: true,
}

// IsFastPacket reports whether pgn is carried as a multi-frame fast packet
// rather than a single CAN frame.
func IsFastPacket(p uint32) bool {
	return fastPacketPGNs[p]
}
