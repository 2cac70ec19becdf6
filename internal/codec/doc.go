/*
Package codec abstracts image decoding, pixel operations, and encoding
behind the Engine interface.

Two engines are provided. VipsEngine wraps libvips via govips and is the
default: fast, memory-bounded, and able to encode every supported
format. NativeEngine is a pure Go fallback built on disintegration/imaging
and the x/image codecs; it needs no C dependencies but cannot encode
WebP. Callers pick an engine at startup and query Supports before
requesting an encode.

The package also owns the format model (Format, ParseFormat) and
content sniffing (DetectFormat, Probe), which identify files by magic
bytes rather than trusting extensions.
*/
package codec
