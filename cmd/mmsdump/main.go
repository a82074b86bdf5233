// Command mmsdump decodes a saved MMS PDU (an m-notification.ind,
// m-retrieve.conf, m-send.req, or similar) and prints its fields,
// analogous to a decode-only mms-dump.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nuntium/mmsengine/mms"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: mmsdump <pdu-file>")
		os.Exit(2)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "mmsdump: %v\n", err)
		os.Exit(1)
	}

	if stripped, err := mms.StripPushEnvelope(data); err == nil {
		data = stripped
	}

	pdu, err := mms.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mmsdump: decode: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summarize(pdu)); err != nil {
		fmt.Fprintf(os.Stderr, "mmsdump: %v\n", err)
		os.Exit(1)
	}
}

func summarize(pdu *mms.PDU) map[string]any {
	out := map[string]any{
		"type":           pdu.Type.String(),
		"transaction_id": pdu.TransactionID,
	}
	switch {
	case pdu.NotificationInd != nil:
		ind := pdu.NotificationInd
		out["from"] = ind.From.Address
		out["subject"] = ind.Subject
		out["size"] = ind.MessageSize
		out["location"] = ind.ContentLocation
	case pdu.RetrieveConf != nil:
		conf := pdu.RetrieveConf
		out["message_id"] = conf.MessageID
		out["from"] = conf.From
		out["to"] = conf.To
		out["subject"] = conf.Subject
		out["status"] = conf.RetrieveStatus
		out["parts"] = partSummaries(conf.Parts)
	case pdu.SendReq != nil:
		req := pdu.SendReq
		out["to"] = req.To
		out["subject"] = req.Subject
		out["parts"] = partSummaries(req.Parts)
	case pdu.SendConf != nil:
		conf := pdu.SendConf
		out["status"] = conf.ResponseStatus
		out["message_id"] = conf.MessageID
		out["text"] = conf.ResponseText
	case pdu.DeliveryInd != nil:
		out["message_id"] = pdu.DeliveryInd.MessageID
		out["status"] = pdu.DeliveryInd.Status.String()
	case pdu.ReadOrigInd != nil:
		out["message_id"] = pdu.ReadOrigInd.MessageID
		out["status"] = pdu.ReadOrigInd.ReadStatus.String()
	}
	return out
}

func partSummaries(parts []mms.Part) []map[string]any {
	out := make([]map[string]any, 0, len(parts))
	for _, p := range parts {
		out = append(out, map[string]any{
			"content_type": p.ContentType.Full(),
			"content_id":   p.ContentID,
			"location":     p.Location,
			"bytes":        len(p.Data),
		})
	}
	return out
}
