// Package catalog reads and writes the compact binary colour catalog.
//
// # Format
//
// All integers are little-endian.
//
//	Header (16 bytes):
//	  magic    u32   0x584C5544 ("DULX")
//	  version  u32   1
//	  count    u32   number of records
//	  reserved u32
//
//	Record (variable length):
//	  r, g, b     u8 ×3
//	  lrv_scaled  u16   LRV × 100
//	  id          u32
//	  name        {len u8, bytes[len]}   len 0 or 255 = absent
//	  code        {len u8, bytes[len]}   len 0 or 255 = absent
//	  light_text  u8
//
// # Access Modes
//
// Both modes share the same wire parsing:
//
//   - Load materializes every record (used to build the spatial index). Any
//     short read, including a truncated string, aborts the load and releases
//     the memory reserved so far.
//   - Stream yields one record at a time and can be rewound. Records are
//     variable-length, so At replays from the first record. Truncated strings
//     are tolerated: the partial value is returned and the stream ends.
//
// Catalogs may be stored zstd- or LZ4-compressed; Open detects and inflates
// them transparently.
package catalog
