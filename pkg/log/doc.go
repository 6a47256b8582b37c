/*
Package log provides structured logging via zerolog: a global Logger
initialized once by Init, plus component/relation/txn-scoped child loggers
(WithComponent, WithRelation, WithTxn) so every catalog operation can be
traced without threading a logger through every call.

	relbuilder := log.WithComponent("relbuilder")
	relbuilder.Info().Uint32("rel_id", uint32(id)).Msg("relation committed")
*/
package log
