// Package core provides the foundational content types shared by the generic
// model abstraction and its vendor plugins. It defines:
//
//   - Part (closed discriminated union: text, media, structured data,
//     tool request, tool response)
//   - Message (conversation role + ordered parts)
//   - Role constants for the fixed role enum
//
// The package intentionally keeps vendor concerns (wire schemas, SDK types,
// transport) out of scope; plugins translate these neutral shapes to and from
// their provider's schema.
package core
