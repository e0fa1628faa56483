// Package bot is the conversational core of keeperbot.
//
// Router receives three kinds of input from the transport (commands, free
// text and option selections), checks the actor against the Gate, and
// drives the per-actor session state machine:
//
//	Idle           --/add-->      AwaitingAdd     --text--> add entry   --> Idle
//	Idle           --/delete-->   AwaitingDelete  --text--> candidates  --> Idle
//	Idle           --text-->      search results                        --> Idle
//	any            --selection--> show or delete the selected entry
//
// StoreService performs every store access as pull, open, (mutate, save,
// push). Selections are resolved through the result registry and then
// looked up again by UUID in the freshly pulled store.
package bot
