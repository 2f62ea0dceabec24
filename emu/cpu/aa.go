/* IST-66 - CPU AA (register-register ALU) instruction family.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package cpu

import "github.com/ist66sim/ist66/emu/alu"

// execAA implements the two/three-AC ALU form (original_source/
// include/alu.h's exec_aa plus original_source/cpu.c's ADR handling).
// Field layout across the 36-bit word, low to high: rt[5:0], bit 6
// (not read), mk[12:7], bit 13 (read only by the ADR check below),
// nl[14], cond[17:15], ci[19:18], op-lo[22:20], acd[26:23],
// acs[30:27], rc[31], op-hi[32], family[35:33]. mk and rt are read as
// unsigned 6-bit values, so this decode only produces left rotates and
// left masks; the negative (right) forms alu.Compute accepts are not
// reachable from an AA instruction.
func (c *CPU) execAA(inst uint64) {
	acs := (inst >> 27) & 0xF
	acd := (inst >> 23) & 0xF

	op := alu.Op(((inst >> 20) & 0x7) | ((inst >> 29) & 0x8))
	ci := alu.CarryInit((inst >> 18) & 0x3)
	cond := alu.Cond((inst >> 15) & 0x7)
	nl := (inst>>14)&1 != 0
	rc := (inst>>31)&1 != 0
	mk := int8((inst >> 7) & 0x3F)
	rt := int8(inst & 0x3F)

	result := alu.Compute(c.AC[acs], c.AC[acd], b2i(c.CF()), alu.Params{
		Op: op, CI: ci, Cond: cond, NL: nl, RC: rc, MK: mk, RT: rt,
	})

	// ADR: low 3 bits of the field spanning bits 11..13 select an
	// alternate destination AC taken from bits 7..10, overriding acd.
	if (inst>>11)&0x7 == 0x4 {
		acd = (inst >> 7) & 0xF
	}

	c.AC[acd] = alu.Data(result)
	c.SetCF(alu.Carry(result))
	if alu.Skip(result) {
		c.SetPC(c.PC() + 2)
	} else {
		c.advance()
	}
}
