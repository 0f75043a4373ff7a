package record

// HeaderSize is the size in bytes of a frame's [crc32][length] header,
// exported so callers (SSTable index bookkeeping) can compute frame
// extents without duplicating the layout constant.
const HeaderSize = headerSize
