// Package goSession is the session and payment-authorization core of the
// rewards client.
//
// An [Engine] owns the single session of a client installation: it restores
// the persisted token on [Engine.Initialize], revalidates it against the
// Account Service, logs in with a device fingerprint attached, and tears
// everything down on [Engine.Logout]. A [PaymentFlow] drives the setup-intent
// handshake that attaches a new default card without the core ever storing
// or logging raw card data.
//
// Engine methods are safe for concurrent use. The session slot is guarded by
// a mutex that is never held across a network call; results of calls that
// were overtaken by a newer mutation are discarded.
//
// # Architecture boundaries
//
// goSession is the public surface: [Engine], [Builder], [Config], [Snapshot]
// and [PaymentFlow]. Flow orchestration, audit dispatch and metric storage
// live under internal/. Collaborators are interfaces: [AccountService]
// (implemented by package accountapi), processor.Processor and storage.Store.
//
// # Failures
//
// Expected outcomes come back as [*Failure] values carrying a [Kind]:
// [KindAuthRejected] clears the session, [KindTransient] never does.
package goSession
