// Package validate implements live validation of HTML form controls.
//
// Rules are read from the standard HTML validation attributes (required,
// pattern, title, minlength, maxlength, min, max) and the control kind. A
// Checker evaluates the rules for a single Field snapshot without touching any
// UI. A Validator combines a Checker with a Binding, which abstracts the UI
// toolkit: it reads fields, toggles validity styles and manages the inline
// error slot of each field's container.
//
// Rule order (first failing rule wins):
//
//  1. required and empty
//  2. empty and not required (passes, nothing else is evaluated)
//  3. pattern, matched against the whole value
//  4. minlength / maxlength
//  5. min / max
//  6. email shape for kind "email"
//  7. absolute URL for kind "url"
//
// Wiring is explicit. The hosting application calls Attach once with the
// forms it wants validated:
//
//	v := validate.New[*dom.Node](host, validate.NewChecker())
//	v.Attach(host, host.Forms())
//
// Forms without the marker attribute are left untouched.
package validate
