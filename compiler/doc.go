/*

Process of compilation

Program Text ->
	lex ->
Tokens ->
	parse ->
Abstract Syntax Tree (ast) and Variables ->
	back ->
Assembly Language (asm) ->
	asm.Append ->
Assembly Text

Assembly Language (asm) ->
	emu ->
Result Value

*/
package compiler
