/*
Package mpedit decodes MessagePack into an editable text view and encodes
edited text back, keeping track of where every value came from.

There are three coordinate systems:

1. Bytes of the original buffer.

2. Compact text, produced while decoding. It is JSON-shaped: one token per
scalar, no whitespace outside of text literals.

3. Formatted text, the compact text indented for people to read and edit.

Every Node records its byte range and its compact-text range. A
PositionTable translates compact offsets into formatted offsets and back,
and an Index finds the innermost node under a byte or text offset.

# Text rendering

  - nil, booleans and integers render as JSON literals.
  - Floats always carry a '.' or an exponent; NaN and infinities render as
    the text literals "NaN", "Infinity" and "-Infinity".
  - Binary renders as a base64 text literal.
  - Extensions render as "ext(<type>,<base64 payload>)". They are not
    editable; saving keeps the original bytes.
  - Map keys are always text literals. A key of another kind is quoted
    (an integer key 1 becomes "1") but keeps its kind when saved.
  - Invalid UTF-8 inside strings is shown as U+FFFD. As long as the string
    is not edited, the original bytes are written back unchanged.

# Round trip

Rebuild walks the edited text and the original tree together. Integers
keep their original width when the new value fits, floats keep their
width, arrays and maps keep their original headers, and untouched strings,
binaries and extensions are copied byte for byte. When the edited shape no
longer matches (an element was added, an integer became an array), the
whole text is encoded from scratch with the smallest encodings instead.

Document ties it together for an editor: Load and Save each produce a new
immutable Generation (tree, texts, position table, index), swapped in
atomically.
*/
package mpedit
