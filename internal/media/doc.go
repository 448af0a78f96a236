// Package media models the conversion targets vconv understands.
//
// ContainerFormat is a closed enumeration of the five supported containers with
// their labels, extensions, and descriptions. VideoSettings carries the
// resolution, bitrate tier, and frame rate selected by the operator, including
// the fixed bitrate lookup table used by the external encoder. OutputPath
// derives the destination file for a conversion.
//
// Lookups never fail loudly: unknown extensions map to FormatUnknown and
// bitrate combinations outside the table resolve to DefaultKbps.
package media
